// Package main hosts the heicbatch CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into batch runs:
// it reads the requested files, drives a batch.Controller to completion with a
// progress bar, prints a per-file result table, and saves the packaged output.
// It also exposes environment checks and configuration scaffolding.
//
// Keep this package lean: conversion, scheduling, and packaging live in the
// internal packages and are surfaced here through commands and flags.
package main
