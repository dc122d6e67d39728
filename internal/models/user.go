package models

import "encoding/json"

// User is the authenticated profile record.
type User struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Avatar         string   `json:"avatar,omitempty"`
	FavoriteSports []string `json:"favoriteSports,omitempty"`
	TrustScore     float64  `json:"trustScore,omitempty"`
	RatingCount    int      `json:"ratingCount,omitempty"`
}

// UserSummary is the reduced shape embedded in conversation listings.
type UserSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// UnmarshalJSON accepts both the current favoriteSports array and the
// legacy encoding where the list was serialized as JSON inside the
// single-text "sport" field. An unparsable legacy value decodes to no
// favorites rather than an error.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		Sport string `json:"sport,omitempty"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(u.FavoriteSports) == 0 && aux.Sport != "" {
		u.FavoriteSports = decodeLegacySports(aux.Sport)
	}
	return nil
}

func decodeLegacySports(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
