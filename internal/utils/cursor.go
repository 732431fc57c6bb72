package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ModuleCursor is keyset state for module listing: id ordering only,
// since module ids are the sort key.
type ModuleCursor struct {
	ID string `json:"id"`
}

func EncodeModuleCursor(id string) (string, error) {
	b, err := json.Marshal(ModuleCursor{ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeModuleCursor(cursor string) (ModuleCursor, error) {
	if cursor == "" {
		return ModuleCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return ModuleCursor{}, err
	}

	var c ModuleCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return ModuleCursor{}, err
	}
	if c.ID == "" {
		return ModuleCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
