package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/cch137/semvec/internal/parser"
	"github.com/cch137/semvec/internal/splitter"
)

// embeddedChunk is one element of the /em/ response, encoded as a CBOR
// array [start, text, tokens, vector].
type embeddedChunk struct {
	_      struct{} `cbor:",toarray"`
	Start  int
	Text   string
	Tokens int
	Vector []float32
}

// handleEmbed splits the submitted text and returns every chunk with its
// embedding, CBOR-encoded. Text arrives as JSON, a form field, a multipart
// upload (inline text or a parsed document file), or the raw body.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	text, err := s.readEmbedText(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	chunks, err := splitter.Split(text, s.splitCfg)
	if err == nil {
		chunks, err = splitter.Optimize(chunks, s.splitCfg)
	}
	if err != nil {
		jsonError(w, "split: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]embeddedChunk, len(chunks))
	sem := make(chan struct{}, s.cfg.MaxConcurrentEmbed)
	errs := make(chan error, len(chunks))
	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, chunk splitter.Chunk) {
			defer func() { <-sem }()
			vec, err := s.embedder.Embed(r.Context(), chunk.Text)
			if err != nil {
				errs <- fmt.Errorf("chunk %d: %w", i, err)
				return
			}
			out[i] = embeddedChunk{
				Start:  chunk.Start,
				Text:   chunk.Text,
				Tokens: chunk.Tokens,
				Vector: vec,
			}
			errs <- nil
		}(i, chunk)
	}
	for range chunks {
		if err := <-errs; err != nil {
			jsonError(w, "embed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	body, err := cbor.Marshal(out)
	if err != nil {
		jsonError(w, "encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.Write(body)
}

// readEmbedText extracts the text to chunk from whichever shape the
// request came in.
func (s *Server) readEmbedText(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case ct == "application/json":
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("invalid json body: %w", err)
		}
		return body.Text, nil

	case ct == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("invalid form body: %w", err)
		}
		return r.PostFormValue("text"), nil

	case ct == "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()
		if text := r.FormValue("text"); text != "" {
			return text, nil
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("text field or file is required")
		}
		defer file.Close()
		filename := sanitizeFilename(header.Filename)
		p, err := parser.ForFile(filename)
		if err != nil {
			return "", err
		}
		doc, err := p.Parse(file, filename)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", filename, err)
		}
		return doc.Text, nil

	default:
		// Raw body is treated as plain text.
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	}
}
