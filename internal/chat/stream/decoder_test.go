package stream

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader yields each chunk from exactly one Read call, the way a
// network stream delivers data.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func decodeAll(t *testing.T, chunks ...string) ([]Event, error) {
	t.Helper()
	d := NewDecoder(&chunkReader{chunks: chunks})
	var events []Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func TestDecodeTextThenPayload(t *testing.T) {
	events, err := decodeAll(t,
		"Here is it",
		Sentinel+`{"recipe":{"dishName":"Pad Thai","ingredients":[{"name":"noodles","amount":"200g"}],"instructions":["Soak","Fry"],"calories":"450 kcal"},"videos":[]}`,
	)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventText, events[0].Kind)
	assert.Equal(t, "Here is it", events[0].Text)

	require.Equal(t, EventPayload, events[1].Kind)
	require.NotNil(t, events[1].Payload.Recipe)
	assert.Equal(t, "Pad Thai", events[1].Payload.Recipe.DishName)
	assert.Empty(t, events[1].Payload.Videos)
}

func TestDecodeNoEventsAfterStreamEnd(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: []string{"hi", Sentinel + `{}`}})
	for {
		if _, err := d.Next(); err == io.EOF {
			break
		}
	}
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeSentinelSplitAcrossChunks(t *testing.T) {
	events, err := decodeAll(t,
		"This is green curry. ---DA",
		"TA---",
		`{"recipe":{"dishName":"แกงเขียวหวาน","ingredients":[{"name":"พริกแกง","amount":"50g"}],"instructions":["ผัด"],"calories":"520"}}`,
	)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "This is green curry.", events[0].Text)
	assert.Equal(t, "แกงเขียวหวาน", events[1].Payload.Recipe.DishName)
}

func TestDecodeIncrementalText(t *testing.T) {
	events, err := decodeAll(t, "  Here ", "is a recipe ", "for you.  ")
	require.NoError(t, err)

	var got strings.Builder
	for _, ev := range events {
		require.Equal(t, EventText, ev.Kind)
		got.WriteString(ev.Text)
	}
	// Trimmed only at the outer emission boundaries, never mid-word.
	assert.Equal(t, "Here is a recipe for you.", got.String())
}

func TestDecodeNoSentinelIsValid(t *testing.T) {
	events, err := decodeAll(t, `{"conversation":`, `"สวัสดีค่ะ"}`)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	var got strings.Builder
	for _, ev := range events {
		assert.Equal(t, EventText, ev.Kind)
		got.WriteString(ev.Text)
	}
	assert.Equal(t, `{"conversation":"สวัสดีค่ะ"}`, got.String())
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := decodeAll(t, "text", Sentinel+"{not json}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload after sentinel")
}

func TestDecodePayloadWithTrailingCommas(t *testing.T) {
	events, err := decodeAll(t,
		"ok",
		Sentinel+`{"recipe":{"dishName":"ต้มยำ","ingredients":[{"name":"กุ้ง","amount":"300g"},],"instructions":["ต้ม",],"calories":"350",},}`,
	)
	require.NoError(t, err)
	payload := events[len(events)-1].Payload
	require.NotNil(t, payload.Recipe)
	assert.Equal(t, "ต้มยำ", payload.Recipe.DishName)
}

func TestDecodeIncompleteSentinelAtEOF(t *testing.T) {
	// A sentinel lookalike that never completes is narrative text.
	events, err := decodeAll(t, "prices start at 10---DA")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "prices start at 10", events[0].Text)
	assert.Equal(t, "---DA", events[1].Text)
}

func TestDecodeEmptyStream(t *testing.T) {
	events, err := decodeAll(t)
	require.NoError(t, err)
	assert.Empty(t, events)
}
