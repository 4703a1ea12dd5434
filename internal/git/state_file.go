package git

import (
	"encoding/json"
	"os"
	"path/filepath"

	"emperror.dev/errors"
)

type StateFileKind string

const (
	// StateFileKindMessageDraft holds the message of a commit that failed so
	// that the next commit can offer it again.
	StateFileKindMessageDraft StateFileKind = "message-draft.state.json"
)

// StateDir is the directory gitstage keeps its per-repository state in.
func (r *Repo) StateDir() string {
	return filepath.Join(r.GitDir(), "gitstage")
}

// ReadStateFile decodes the state file of the given kind into msg. It returns
// an error satisfying os.IsNotExist when there is no such state.
func (r *Repo) ReadStateFile(kind StateFileKind, msg any) error {
	bs, err := os.ReadFile(filepath.Join(r.StateDir(), string(kind)))
	if err != nil {
		return err
	}
	return errors.WrapIff(json.Unmarshal(bs, msg), "corrupt state file %s", kind)
}

// WriteStateFile replaces the state file of the given kind with msg. A nil
// msg removes the file.
func (r *Repo) WriteStateFile(kind StateFileKind, msg any) error {
	file := filepath.Join(r.StateDir(), string(kind))
	if msg == nil {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	bs, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.StateDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(file, bs, 0644)
}
