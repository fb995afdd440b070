// Package helper holds the small utilities shared by the answer pipeline
// and the command line.
package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateUUID returns a random v4 UUID, used as the ID of each answer.
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// WriteJSON writes v to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// PrettyPrint dumps v to stdout; -dry-run uses it to show the chunks that
// would be indexed.
func PrettyPrint(v any) {
	if err := WriteJSON(os.Stdout, v); err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
	}
}
