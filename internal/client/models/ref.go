package models

import (
	"bytes"
	"encoding/json"
)

// Ref is a reference the backend serializes either as a bare id string or,
// when populated, as an object {"_id": ..., "name": ...}.
type Ref struct {
	ID   string
	Name string
}

type refObject struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Populated reports whether the backend sent the object form.
func (r Ref) Populated() bool {
	return r.Name != ""
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		*r = Ref{}
		return json.Unmarshal(b, &r.ID)
	}
	var obj refObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = Ref{ID: obj.ID, Name: obj.Name}
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Populated() {
		return json.Marshal(r.ID)
	}
	return json.Marshal(refObject{ID: r.ID, Name: r.Name})
}
