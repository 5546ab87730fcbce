package main

import (
	"bytes"
	"fmt"
	"log"

	"nutrition"
	nutritionmsgpack "nutrition/msgpack"
)

type ExampleInterface interface {
	Name() string
	OnMarshalCatalog(cat *nutrition.CatalogFile) ([]byte, error)
	OnUnmarshalCatalog(b []byte) (*nutrition.CatalogFile, error)
}

type ExampleYAML struct{}

func (e *ExampleYAML) Name() string { return "yaml" }

func (e *ExampleYAML) OnMarshalCatalog(cat *nutrition.CatalogFile) ([]byte, error) {
	var buf bytes.Buffer
	err := cat.WriteYAML(&buf)
	return buf.Bytes(), err
}

func (e *ExampleYAML) OnUnmarshalCatalog(b []byte) (*nutrition.CatalogFile, error) {
	return nutrition.ParseCatalog(bytes.NewReader(b))
}

type ExampleMsgpack struct{}

func (e *ExampleMsgpack) Name() string { return "msgpack" }

func (e *ExampleMsgpack) OnMarshalCatalog(cat *nutrition.CatalogFile) ([]byte, error) {
	return nutritionmsgpack.MarshalCatalog(cat)
}

func (e *ExampleMsgpack) OnUnmarshalCatalog(b []byte) (*nutrition.CatalogFile, error) {
	return nutritionmsgpack.UnmarshalCatalog(b)
}

// ExampleStream writes one record per unit and conversion and reads them
// back a few bytes at a time, as a reader on a slow pipe would.
type ExampleStream struct{}

func (e *ExampleStream) Name() string { return "msgpack stream" }

func (e *ExampleStream) OnMarshalCatalog(cat *nutrition.CatalogFile) ([]byte, error) {
	var buf bytes.Buffer
	err := nutritionmsgpack.WriteCatalog(&buf, cat)
	return buf.Bytes(), err
}

func (e *ExampleStream) OnUnmarshalCatalog(b []byte) (*nutrition.CatalogFile, error) {
	var (
		rb      nutritionmsgpack.RecordBuffer
		cat     nutritionmsgpack.Catalog
		records int
	)
	for len(b) > 0 {
		n := min(7, len(b))
		got, err := rb.Feed(b[:n])
		if err != nil {
			return nil, err
		}
		for _, rec := range got {
			cat.Add(rec)
		}
		records += len(got)
		b = b[n:]
	}
	fmt.Printf("  %d records, %d bytes pending\n", records, rb.Pending())
	if rb.Pending() > 0 {
		return nil, fmt.Errorf("stream ended inside a record (%d bytes)", rb.Pending())
	}
	return nutritionmsgpack.ToCatalog(&cat)
}

func doExample(e ExampleInterface, cat *nutrition.CatalogFile) []byte {
	b, err := e.OnMarshalCatalog(cat)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s:\n", e.Name())
	got, err := e.OnUnmarshalCatalog(b)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  version: %s\n", got.Version)
	fmt.Printf("  units: %d\n", len(got.Units()))
	fmt.Printf("  conversions: %d\n", len(got.Conversions()))
	return b
}

func main() {
	cat, err := nutrition.DefaultCatalog()
	if err != nil {
		log.Fatal(err)
	}

	yamlBytes := doExample(&ExampleYAML{}, cat)
	mpBytes := doExample(&ExampleMsgpack{}, cat)
	streamBytes := doExample(&ExampleStream{}, cat)
	fmt.Printf("yaml len %d\n", len(yamlBytes))
	fmt.Printf("msgpack len %d\n", len(mpBytes))
	fmt.Printf("msgpack stream len %d\n", len(streamBytes))
}
