package raw

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// rowStream decodes a JSON array response one element at a time. A
// response that is a single object yields one row.
type rowStream struct {
	body    io.ReadCloser
	dec     *json.Decoder
	started bool
	single  bool
	done    bool
	row     ports.Row
	err     error
}

func newRowStream(body io.ReadCloser) *rowStream {
	return &rowStream{body: body}
}

func (s *rowStream) start() error {
	br := bufio.NewReader(s.body)
	s.dec = json.NewDecoder(br)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		s.done = true
		return nil
	}
	if err != nil {
		return err
	}
	if first != '[' {
		s.single = true
		return nil
	}
	if _, err := s.dec.Token(); err != nil {
		return err
	}
	return nil
}

func (s *rowStream) Next() bool {
	if s.err != nil || s.done {
		return false
	}
	if !s.started {
		s.started = true
		if err := s.start(); err != nil {
			s.fail(err)
			return false
		}
		if s.done {
			return false
		}
	}

	if s.single {
		s.done = true
		return s.decode()
	}
	if !s.dec.More() {
		s.done = true
		if _, err := s.dec.Token(); err != nil {
			s.fail(err)
		}
		return false
	}
	return s.decode()
}

func (s *rowStream) decode() bool {
	var row ports.Row
	if err := s.dec.Decode(&row); err != nil {
		s.fail(err)
		return false
	}
	s.row = row
	return true
}

func (s *rowStream) fail(err error) {
	s.row = nil
	s.err = &core.UpstreamError{Message: "reading result stream", Cause: err}
}

func (s *rowStream) Row() ports.Row { return s.row }

func (s *rowStream) Err() error { return s.err }

func (s *rowStream) Close() error {
	s.done = true
	return s.body.Close()
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
