package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Login struct {
	Token string `validate:"required,jwt" json:"token"`
}

func (l Login) MarshalZerologObject(e *zerolog.Event) {
	e.Str("token", "***")
}

func (l Login) MarshalJSON() ([]byte, error) {
	l.Token = "***"
	type L Login
	return json.Marshal(L(l))
}
