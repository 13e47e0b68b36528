// Test file for the dockerfile package.
//
// Globals mutated: none.
package dockerfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeDockerfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Dockerfile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing dockerfile: %v", err)
	}
	return path
}

func TestBaseImages(t *testing.T) {
	path := writeDockerfile(t, `# build stage
FROM --platform=$BUILDPLATFORM golang:1.22 AS build
WORKDIR /src
RUN go build ./...

FROM alpine:3.20
COPY --from=build /src/app /usr/local/bin/app
`)

	images, err := BaseImages(path)
	if err != nil {
		t.Fatalf("BaseImages() error = %v", err)
	}
	want := []string{"golang:1.22", "alpine:3.20"}
	if !reflect.DeepEqual(images, want) {
		t.Errorf("BaseImages() = %v, want %v", images, want)
	}
}

func TestBaseImagesSkipsStagesAndScratch(t *testing.T) {
	path := writeDockerfile(t, `FROM golang:1.22 AS build
from build AS test
FROM scratch
COPY --from=build /app /app
`)

	images, err := BaseImages(path)
	if err != nil {
		t.Fatalf("BaseImages() error = %v", err)
	}
	want := []string{"golang:1.22"}
	if !reflect.DeepEqual(images, want) {
		t.Errorf("BaseImages() = %v, want %v", images, want)
	}
}

func TestBaseImagesSkipsVariableReferences(t *testing.T) {
	path := writeDockerfile(t, `ARG BASE=alpine:3.20
FROM $BASE
FROM ubuntu:24.04
`)

	images, err := BaseImages(path)
	if err != nil {
		t.Fatalf("BaseImages() error = %v", err)
	}
	want := []string{"ubuntu:24.04"}
	if !reflect.DeepEqual(images, want) {
		t.Errorf("BaseImages() = %v, want %v", images, want)
	}
}

func TestBaseImagesDeduplicates(t *testing.T) {
	path := writeDockerfile(t, `FROM alpine:3.20 AS a
FROM alpine:3.20 AS b
`)

	images, err := BaseImages(path)
	if err != nil {
		t.Fatalf("BaseImages() error = %v", err)
	}
	want := []string{"alpine:3.20"}
	if !reflect.DeepEqual(images, want) {
		t.Errorf("BaseImages() = %v, want %v", images, want)
	}
}

func TestBaseImagesMissingFile(t *testing.T) {
	if _, err := BaseImages(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("BaseImages() error = nil, want open failure")
	}
}
