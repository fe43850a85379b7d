// Модели обмена с бекендом аутентификации (POST /auth/login).
package models

import (
	"encoding/json"
	"fmt"
)

// Credentials - тело запроса логина.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult - ответ бекенда при успешном логине.
// Потребляется только access_token; прочие поля (token_type, refresh_token, ...)
// сохраняются в Extra и отдаются дальше без изменений.
type AuthResult struct {
	AccessToken string
	// HasAccessToken - поле access_token присутствовало в ответе.
	HasAccessToken bool
	TokenType      string
	Extra          map[string]json.RawMessage
}

const (
	fieldAccessToken = "access_token"
	fieldTokenType   = "token_type"
)

func (a *AuthResult) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	// JSON null декодируется в nil map - пустой объект для нас эквивалентен.
	out := AuthResult{Extra: make(map[string]json.RawMessage, len(raw))}
	for k, v := range raw {
		switch k {
		case fieldAccessToken:
			if err := decodeOptionalString(v, &out.AccessToken); err != nil {
				return fmt.Errorf("%s: %w", fieldAccessToken, err)
			}
			out.HasAccessToken = string(v) != "null"
		case fieldTokenType:
			if err := decodeOptionalString(v, &out.TokenType); err != nil {
				return fmt.Errorf("%s: %w", fieldTokenType, err)
			}
		default:
			out.Extra[k] = v
		}
	}

	*a = out
	return nil
}

func (a AuthResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+2)
	for k, v := range a.Extra {
		out[k] = v
	}

	if a.HasAccessToken || a.AccessToken != "" {
		out[fieldAccessToken] = a.AccessToken
	}
	if a.TokenType != "" {
		out[fieldTokenType] = a.TokenType
	}

	return json.Marshal(out)
}

func decodeOptionalString(v json.RawMessage, dst *string) error {
	if string(v) == "null" {
		*dst = ""
		return nil
	}

	return json.Unmarshal(v, dst)
}
