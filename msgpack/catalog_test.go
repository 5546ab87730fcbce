package nutritionmsgpack

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"nutrition"
)

func defaultCatalog(t *testing.T) *nutrition.CatalogFile {
	t.Helper()
	cat, err := nutrition.DefaultCatalog()
	require.NoError(t, err)
	return cat
}

func requireSameCatalog(t *testing.T, want, got *nutrition.CatalogFile) {
	t.Helper()
	require.Equal(t, want.Version.String(), got.Version.String())
	require.Len(t, got.Units(), len(want.Units()))
	for i, u := range want.Units() {
		require.True(t, u.Equal(got.Units()[i]), "unit %d", i)
		require.Equal(t, u.Aliases, got.Units()[i].Aliases)
	}
	require.Len(t, got.Conversions(), len(want.Conversions()))
	for i, c := range want.Conversions() {
		require.True(t, c.Equal(got.Conversions()[i]), "conversion %s", c)
	}
}

func TestMarshalCatalog(t *testing.T) {
	cat := defaultCatalog(t)

	b, err := MarshalCatalog(cat)
	require.NoError(t, err)

	got, err := UnmarshalCatalog(b)
	require.NoError(t, err)
	requireSameCatalog(t, cat, got)
}

func TestUnmarshalCatalog_UnknownUnit(t *testing.T) {
	b, err := msgpack.Marshal(&Catalog{
		Version: "1.0.0",
		Units:   []Unit{{Name: "gram", Type: "mass"}},
		Conversions: []UnitConversion{
			{FromUnit: "gram", FromValue: 1000, ToUnit: "kilogram", ToValue: 1},
		},
	})
	require.NoError(t, err)

	_, err = UnmarshalCatalog(b)
	require.ErrorIs(t, err, nutrition.ErrUnitNotFound)
}

func TestUnmarshalCatalog_UnsupportedVersion(t *testing.T) {
	b, err := msgpack.Marshal(&Catalog{Version: "2.1.0"})
	require.NoError(t, err)

	_, err = UnmarshalCatalog(b)
	require.ErrorIs(t, err, nutrition.ErrUnsupportedCatalogVersion)
}

func TestRecordBuffer_FeedByteByByte(t *testing.T) {
	cat := defaultCatalog(t)
	var stream bytes.Buffer
	require.NoError(t, WriteCatalog(&stream, cat))

	var rb RecordBuffer
	var records []*Record
	for _, b := range stream.Bytes() {
		got, err := rb.Feed([]byte{b})
		require.NoError(t, err)
		records = append(records, got...)
	}

	require.Zero(t, rb.Pending())
	require.Len(t, records, 1+len(cat.Units())+len(cat.Conversions()))
	require.Equal(t, cat.Version.String(), records[0].Version)
	require.Equal(t, "gram", records[1].Unit.Name)
}

func TestReadCatalog(t *testing.T) {
	cat := defaultCatalog(t)
	var stream bytes.Buffer
	require.NoError(t, WriteCatalog(&stream, cat))

	got, err := ReadCatalog(&stream)
	require.NoError(t, err)
	requireSameCatalog(t, cat, got)
}

func TestReadCatalog_Truncated(t *testing.T) {
	cat := defaultCatalog(t)
	var stream bytes.Buffer
	require.NoError(t, WriteCatalog(&stream, cat))
	truncated := stream.Bytes()[:stream.Len()-3]

	_, err := ReadCatalog(bytes.NewReader(truncated))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCatalog_AddStreamedRecords(t *testing.T) {
	cat := defaultCatalog(t)
	var stream bytes.Buffer
	require.NoError(t, WriteCatalog(&stream, cat))

	var (
		rb  RecordBuffer
		out Catalog
	)
	data := stream.Bytes()
	for len(data) > 0 {
		n := min(7, len(data))
		records, err := rb.Feed(data[:n])
		require.NoError(t, err)
		for _, rec := range records {
			out.Add(rec)
		}
		data = data[n:]
	}
	require.Zero(t, rb.Pending())

	got, err := ToCatalog(&out)
	require.NoError(t, err)
	requireSameCatalog(t, cat, got)
}
