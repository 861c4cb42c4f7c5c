package jsonutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

func Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding JSON: %w", err)
	}
	return data, nil
}

// SerializeIndent is Serialize with two-space indentation and a
// trailing newline, for files meant to be read by people too.
func SerializeIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func WriteFile(path string, v any) error {
	data, err := SerializeIndent(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing JSON file %s: %w", path, err)
	}
	return nil
}

// Respond serializes v before touching w, so an encoding failure can
// still become a clean 500.
func Respond(w http.ResponseWriter, status int, v any) error {
	data, err := Serialize(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
