package convert

import (
	"context"

	"heicbatch/internal/textutil"
)

// Request is one conversion call.
type Request struct {
	Name    string
	Source  []byte
	Format  Format
	Quality int
}

// Primitive converts one image.
type Primitive interface {
	Convert(ctx context.Context, req Request) ([]byte, error)
}

// Func adapts a function to Primitive.
type Func func(ctx context.Context, req Request) ([]byte, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// IsPassthroughName reports whether name is a JPEG or PNG that is delivered as-is.
func IsPassthroughName(name string) bool {
	switch textutil.Extension(name) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Passthrough returns JPEG and PNG sources unchanged and forwards everything
// else to next.
func Passthrough(next Primitive) Primitive {
	return Func(func(ctx context.Context, req Request) ([]byte, error) {
		if IsPassthroughName(req.Name) {
			return req.Source, nil
		}
		return next.Convert(ctx, req)
	})
}
