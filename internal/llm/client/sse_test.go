package client

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out its chunks one Read at a time.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func collect(t *testing.T, s DeltaStream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		delta, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return deltas, nil
		}
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func streamOver(chunks ...string) *openAIStream {
	body := io.NopCloser(&chunkReader{chunks: chunks})
	return &openAIStream{body: body, decoder: newSSEDecoder(body)}
}

func TestOpenAIStream_EmitsDeltasInOrder(t *testing.T) {
	s := streamOver(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
		"data: [DONE]\n\n",
	)

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestOpenAIStream_ReassemblesEventsSplitAcrossReads(t *testing.T) {
	s := streamOver(
		"data: {\"choices\":[{\"del",
		"ta\":{\"content\":\"Hel\"}}]}\n",
		"\ndata: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\ndata: [DO",
		"NE]\n\n",
	)

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestOpenAIStream_StopsAtDoneSentinel(t *testing.T) {
	s := streamOver(
		"data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
			"data: [DONE]\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n\n",
	)

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, deltas)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenAIStream_SkipsRoleOnlyChunksAndComments(t *testing.T) {
	s := streamOver(
		": keep-alive\n\n",
		"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\r\n\r\n",
		"data: [DONE]\n\n",
	)

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, deltas)
}

func TestOpenAIStream_QuotaBodyIsProviderFailure(t *testing.T) {
	s := streamOver(`{
    "error": {
        "message": "You exceeded your current quota",
        "type": "insufficient_quota",
        "code": "insufficient_quota"
    }
}
`)

	deltas, err := collect(t, s)
	assert.Empty(t, deltas)
	perr, ok := AsProviderError(err)
	require.True(t, ok)
	assert.True(t, perr.IsQuota())
	assert.Equal(t, "Error message: You exceeded your current quota", perr.Error())
}

func TestOpenAIStream_EndOfBodyWithoutSentinel(t *testing.T) {
	s := streamOver("data: {\"choices\":[{\"delta\":{\"content\":\"tail\"}}]}")

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, deltas)
}

func TestOpenAIStream_MalformedChunkIsTransportError(t *testing.T) {
	s := streamOver("data: {not json}\n\n")

	_, err := collect(t, s)
	require.Error(t, err)
	_, isProvider := AsProviderError(err)
	assert.False(t, isProvider)
}

func TestSSEDecoder_JoinsMultiLineData(t *testing.T) {
	d := newSSEDecoder(strings.NewReader("event: message\nid: 7\ndata: one\ndata: two\n\n"))

	ev, err := d.Next()
	require.NoError(t, err)
	assert.True(t, ev.HasData)
	assert.Equal(t, "one\ntwo", ev.Data)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}
