// Package googleindex publishes URL_UPDATED notifications to Google's Indexing API
// through its multipart/mixed batch endpoint.
package googleindex

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultEndpoint is the Indexing API batch endpoint.
	DefaultEndpoint = "https://indexing.googleapis.com/batch"
	// Boundary separates the MIME parts of a batch body.
	Boundary = "===============7330845974216740156=="

	publishLine      = "POST /v3/urlNotifications:publish HTTP/1.1"
	notificationType = "URL_UPDATED"
)

type notification struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// ContentType returns the request Content-Type for a body built with boundary.
func ContentType(boundary string) string {
	return "multipart/mixed; boundary=" + boundary
}

// BuildBatchBody renders one application/http part per URL, with Content-IDs numbered
// from 1 in input order, followed by the closing delimiter. An empty list yields only
// the closing delimiter.
func BuildBatchBody(boundary string, urls []string) []byte {
	var buf bytes.Buffer
	for i, u := range urls {
		buf.WriteString("--" + boundary + "\r\n")
		buf.WriteString("Content-Type: application/http\r\n")
		buf.WriteString("Content-Transfer-Encoding: binary\r\n")
		buf.WriteString("Content-ID: <" + strconv.Itoa(i+1) + ">\r\n\r\n")
		buf.WriteString(publishLine + "\r\n")
		buf.WriteString("Content-Type: application/json\r\n")
		buf.WriteString("accept: application/json\r\n\r\n")
		buf.WriteString(notificationJSON(u) + "\r\n")
	}
	buf.WriteString("--" + boundary + "--")
	return buf.Bytes()
}

// notificationJSON renders {"url": "...", "type": "URL_UPDATED"}. Quotes and control
// characters are escaped; '&', '<' and '>' are written literally.
func notificationJSON(u string) string {
	var quoted bytes.Buffer
	enc := json.NewEncoder(&quoted)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(u); err != nil {
		quoted.Reset()
		quoted.WriteString(strconv.Quote(u))
	}
	return `{"url": ` + strings.TrimSuffix(quoted.String(), "\n") + `, "type": "` + notificationType + `"}`
}
