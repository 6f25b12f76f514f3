package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/thaifoodie/chat-backend/internal/types"
)

// UUID conversions

func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{
		Bytes: id,
		Valid: true,
	}
}

func pgtypeToUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}

// Text conversions

func stringToPgtext(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func pgtextToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// Timestamptz conversions

func pgtimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// JSONB conversions for the recipe and video columns. A SQL NULL maps
// to the zero value, and marshal errors surface as NULL writes since
// the types involved cannot actually fail to marshal.

func recipeToJSON(r *types.Recipe) []byte {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return data
}

func recipeFromJSON(data []byte) *types.Recipe {
	if len(data) == 0 {
		return nil
	}
	var r types.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

func videosToJSON(v []types.Video) []byte {
	if len(v) == 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func videosFromJSON(data []byte) []types.Video {
	if len(data) == 0 {
		return nil
	}
	var v []types.Video
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}
