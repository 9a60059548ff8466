// Package fieldcrypt applies the cryptox codec to whole records. Which columns
// of which record are sensitive is declared once, in the manifest table below;
// the generic encrypt/decrypt functions consume it so call sites never list
// fields themselves.
package fieldcrypt

import (
	"reflect"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

// Kind names a record type that has a manifest.
type Kind string

const (
	KindCharacter Kind = "character"
	KindChat      Kind = "chat"
	KindMessage   Kind = "message"
	KindPersona   Kind = "persona"
	KindProfile   Kind = "profile"
	KindAPIKey    Kind = "api_key"
)

// manifests maps each Kind to its sensitive columns, in encryption order.
// Names are the `db` tags of the model fields.
var manifests = map[Kind][]string{
	KindCharacter: {
		"name", "description", "intro", "bio", "book", "image_link", "personality",
		"system_prompt", "image_prompt", "first_message", "speaker_link", "scenario",
	},
	KindChat:    {"title", "description", "last_message", "dynamic_book", "negative_prompt"},
	KindMessage: {"content"},
	KindPersona: {"full_name", "bio", "avatar_link"},
	KindProfile: {"first_name", "last_name", "bio"},
	KindAPIKey:  {"encrypted_api_key"},
}

// modelTypes ties every Kind to the struct its manifest describes.
var modelTypes = map[Kind]reflect.Type{
	KindCharacter: reflect.TypeOf(models.Character{}),
	KindChat:      reflect.TypeOf(models.Chat{}),
	KindMessage:   reflect.TypeOf(models.Message{}),
	KindPersona:   reflect.TypeOf(models.Persona{}),
	KindProfile:   reflect.TypeOf(models.Profile{}),
	KindAPIKey:    reflect.TypeOf(models.APIKey{}),
}

// Fields returns a copy of the manifest for kind, or nil for an unknown kind.
func Fields(kind Kind) []string {
	f, ok := manifests[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), f...)
}

// Kinds lists every kind with a manifest.
func Kinds() []Kind {
	return []Kind{KindCharacter, KindChat, KindMessage, KindPersona, KindProfile, KindAPIKey}
}

// Validate checks that every manifest field exists on its model as a string
// column. It runs at start-up so a renamed column fails loudly.
func Validate() error {
	for _, kind := range Kinds() {
		if _, err := fieldIndexes(modelTypes[kind], kind); err != nil {
			return err
		}
	}
	return nil
}
