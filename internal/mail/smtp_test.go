package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessageStructure(t *testing.T) {
	pdf := bytes.Repeat([]byte{0x25, 0x50, 0x44, 0x46}, 100)
	raw, err := buildMessage("no-reply@invoicely.local", "acme@example.com",
		"Invoice INV-00001 from Demo User", "Hello Acme,\r\n", "INV-00001.pdf", pdf)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "no-reply@invoicely.local", msg.Header.Get("From"))
	require.Equal(t, "acme@example.com", msg.Header.Get("To"))
	require.Equal(t, "Invoice INV-00001 from Demo User", msg.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])

	textPart, err := reader.NextPart()
	require.NoError(t, err)
	require.Contains(t, textPart.Header.Get("Content-Type"), "text/plain")
	body, err := io.ReadAll(textPart)
	require.NoError(t, err)
	require.Contains(t, string(body), "Hello Acme")

	pdfPart, err := reader.NextPart()
	require.NoError(t, err)
	require.Equal(t, "application/pdf", pdfPart.Header.Get("Content-Type"))
	require.Contains(t, pdfPart.Header.Get("Content-Disposition"), "INV-00001.pdf")

	encoded, err := io.ReadAll(pdfPart)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	require.Equal(t, pdf, decoded)
}

func TestBuildMessageWrapsBase64Lines(t *testing.T) {
	pdf := bytes.Repeat([]byte{0xAB}, 1000)
	raw, err := buildMessage("a@b.c", "d@e.f", "s", "b", "x.pdf", pdf)
	require.NoError(t, err)

	for _, line := range strings.Split(string(raw), "\r\n") {
		require.LessOrEqual(t, len(line), 998)
	}
}

func TestSendInvoiceHonoursCancelledContext(t *testing.T) {
	sender := NewSender(Config{Host: "127.0.0.1", Port: 1025, From: "a@b.c"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.SendInvoice(ctx, "d@e.f", "s", "b", "x.pdf", []byte("pdf"))
	require.ErrorIs(t, err, context.Canceled)
}
