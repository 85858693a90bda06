package deps

import "strings"

// converterDescriptions names the image tools heicbatch can drive.
var converterDescriptions = map[string]string{
	"vips":     "libvips CLI, decodes HEIC through libheif",
	"heif-dec": "libheif decoder CLI",
	"magick":   "ImageMagick 7 CLI",
}

// ConverterRequirement describes the configured conversion tool.
func ConverterRequirement(tool, binary string) Requirement {
	tool = strings.TrimSpace(tool)
	command := strings.TrimSpace(binary)
	if command == "" {
		command = tool
	}
	description, ok := converterDescriptions[tool]
	if !ok {
		description = "image conversion tool"
	}
	return Requirement{
		Name:        "Converter (" + tool + ")",
		Command:     command,
		Description: "Required for HEIC decoding: " + description,
	}
}

// CheckConverter reports whether the configured conversion tool is installed.
func CheckConverter(tool, binary string) Status {
	return CheckBinaries([]Requirement{ConverterRequirement(tool, binary)})[0]
}
