package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layerstack/pkg/errors"
)

// ReadDocument decodes a sample document from r.
//
// The input must be a JSON object. Malformed JSON or values of the wrong type
// (a string where a number is expected, a null slot value) fail with
// INVALID_FORMAT. Missing sections are not an error here; they surface when
// the sample is selected or normalized.
//
// ReadDocument does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}
	return &doc, nil
}

// ParseDocument decodes a sample document held in memory.
func ParseDocument(data []byte) (*Document, error) {
	return ReadDocument(bytes.NewReader(data))
}

// ImportDocument reads the JSON file at path and returns the decoded document.
//
// A missing file fails with FILE_NOT_FOUND; other open errors and decode
// errors are returned as from [ReadDocument], wrapped with the path.
func ImportDocument(path string) (*Document, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadFile returns the bytes of the document file at path without decoding
// them. Path errors are coded as for [ImportDocument].
func ReadFile(path string) ([]byte, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	return data, nil
}
