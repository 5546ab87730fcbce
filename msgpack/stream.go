package nutritionmsgpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"nutrition"
)

// Record is one element of a catalog stream. Exactly one field is set; the
// version record comes first.
type Record struct {
	Version    string          `msgpack:"v,omitempty"`
	Unit       *Unit           `msgpack:"u,omitempty"`
	Conversion *UnitConversion `msgpack:"c,omitempty"`
}

// RecordBuffer accumulates stream bytes and hands back every complete record.
// A trailing partial record stays buffered until more data arrives.
type RecordBuffer struct {
	buf bytes.Buffer
}

func (rb *RecordBuffer) Feed(data []byte) ([]*Record, error) {
	rb.buf.Write(data)

	r := bytes.NewReader(rb.buf.Bytes())
	dec := msgpack.NewDecoder(r)
	consumed := 0
	var results []*Record
	for r.Len() > 0 {
		v := new(Record)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// not enough data yet, stop
				break
			}
			rb.buf.Next(consumed)
			return results, err
		}
		consumed = int(r.Size()) - r.Len()
		results = append(results, v)
	}
	rb.buf.Next(consumed)
	return results, nil
}

// Pending reports how many bytes are waiting for the rest of a record.
func (rb *RecordBuffer) Pending() int {
	return rb.buf.Len()
}

// Add folds one streamed record into c.
func (c *Catalog) Add(rec *Record) {
	switch {
	case rec.Version != "":
		c.Version = rec.Version
	case rec.Unit != nil:
		c.Units = append(c.Units, *rec.Unit)
	case rec.Conversion != nil:
		c.Conversions = append(c.Conversions, *rec.Conversion)
	}
}

func WriteCatalog(w io.Writer, cat *nutrition.CatalogFile) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&Record{Version: cat.Version.String()}); err != nil {
		return err
	}
	for _, u := range cat.Units() {
		mu := NewUnit(u)
		if err := enc.Encode(&Record{Unit: &mu}); err != nil {
			return err
		}
	}
	for _, c := range cat.Conversions() {
		mc := NewUnitConversion(c)
		if err := enc.Encode(&Record{Conversion: &mc}); err != nil {
			return err
		}
	}
	return nil
}

// ReadCatalog reads a stream written by WriteCatalog in fixed size chunks.
func ReadCatalog(r io.Reader) (*nutrition.CatalogFile, error) {
	var (
		rb    RecordBuffer
		cat   Catalog
		chunk = make([]byte, 4096)
	)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			records, ferr := rb.Feed(chunk[:n])
			if ferr != nil {
				return nil, ferr
			}
			for _, rec := range records {
				cat.Add(rec)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if rb.Pending() > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", io.ErrUnexpectedEOF, rb.Pending())
	}
	return ToCatalog(&cat)
}
