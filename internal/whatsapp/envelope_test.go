package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1001",
    "changes": [{
      "field": "messages",
      "value": {
        "contacts": [{"wa_id": "50688881111"}],
        "messages": [{
          "id": "wamid.ABC",
          "type": "text",
          "text": {"body": "pedido:\nacme\nhoy\n3 jabon\n"}
        }]
      }
    }]
  }]
}`

const documentPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1001",
    "changes": [{
      "field": "messages",
      "value": {
        "contacts": [{"wa_id": "50688881111"}],
        "messages": [{
          "id": "wamid.DOC",
          "type": "document",
          "document": {
            "id": "media-55",
            "filename": "catalogo.xlsx",
            "mime_type": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
            "caption": "agregar articulo"
          }
        }]
      }
    }]
  }]
}`

const statusPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1001",
    "changes": [{
      "field": "messages",
      "value": {
        "statuses": [{"id": "wamid.ABC", "status": "delivered"}]
      }
    }]
  }]
}`

func TestParseInboundText(t *testing.T) {
	msg, ok := ParseInbound([]byte(textPayload))
	require.True(t, ok)

	assert.Equal(t, "wamid.ABC", msg.ID)
	assert.Equal(t, "50688881111", msg.From)
	assert.Equal(t, "pedido:\nacme\nhoy\n3 jabon", msg.Body)
	assert.Nil(t, msg.Document)
	assert.JSONEq(t, textPayload, string(msg.Raw))
}

func TestParseInboundDocument(t *testing.T) {
	msg, ok := ParseInbound([]byte(documentPayload))
	require.True(t, ok)

	assert.Equal(t, "wamid.DOC", msg.ID)
	assert.Equal(t, "agregar articulo", msg.Body)
	require.NotNil(t, msg.Document)
	assert.Equal(t, "media-55", msg.Document.ID)
	assert.Equal(t, "catalogo.xlsx", msg.Document.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", msg.Document.MimeType)
}

func TestParseInboundStatusUpdate(t *testing.T) {
	_, ok := ParseInbound([]byte(statusPayload))
	assert.False(t, ok)
}

func TestParseInboundUnsupportedType(t *testing.T) {
	payload := `{
	  "entry": [{"changes": [{"value": {
	    "contacts": [{"wa_id": "50688881111"}],
	    "messages": [{"id": "wamid.IMG", "type": "image"}]
	  }}]}]
	}`
	_, ok := ParseInbound([]byte(payload))
	assert.False(t, ok)
}

func TestParseInboundMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "{}", `{"entry": []}`, `{"entry": [{"changes": []}]}`} {
		_, ok := ParseInbound([]byte(raw))
		assert.False(t, ok, "raw=%q", raw)
	}
}
