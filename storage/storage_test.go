package storage

import (
	"testing"
	"time"
)

func TestDecodeBoardEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"board","RowKey":"b1","Title":"Sprint","Description":"d","ItemKind":"ticket","Vocabulary":"board_column","ColumnIDs":"[\"c2\",\"c1\"]","Published":true,"Created":"1767225600"}`)
	b, err := decodeBoardEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.ID != "b1" || b.Title != "Sprint" || !b.Published {
		t.Fatalf("unexpected board: %+v", b)
	}
	if len(b.ColumnIDs) != 2 || b.ColumnIDs[0] != "c2" || b.ColumnIDs[1] != "c1" {
		t.Fatalf("column selection order lost: %v", b.ColumnIDs)
	}
	if b.Created.Year() != 2026 {
		t.Fatalf("unexpected created time: %v", b.Created)
	}
}

func TestDecodeBoardEntityEmptySelection(t *testing.T) {
	data := []byte(`{"PartitionKey":"board","RowKey":"b1","Title":"Sprint"}`)
	b, err := decodeBoardEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.ColumnIDs) != 0 {
		t.Fatalf("expected no selection, got %v", b.ColumnIDs)
	}
}

func TestDecodeItemEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"b1","RowKey":"i1","Kind":"ticket","Title":"Fix lift","StatusID":"c1","Weight":3,"AuthorID":"u1","AssigneeID":"u2","CommentCount":2,"FileCount":1,"Published":true,"Created":"1767225600","Fields":"{\"ticket_description\":\"stuck\"}"}`)
	it, err := decodeItemEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if it.ID != "i1" || it.BoardID != "b1" || it.StatusID != "c1" || it.Weight != 3 {
		t.Fatalf("unexpected item: %+v", it)
	}
	if it.Fields["ticket_description"] != "stuck" {
		t.Fatalf("fields not decoded: %v", it.Fields)
	}
	if !it.Created.Equal(time.Unix(1767225600, 0).UTC()) {
		t.Fatalf("unexpected created: %v", it.Created)
	}
}

func TestDecodeSettingsEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"settings","RowKey":"settings","RestrictedKinds":"[\"notice\"]","NotifyKinds":"[\"ticket\"]","NotifyRoles":"[\"editor\",\"administrator\"]"}`)
	s, err := decodeSettingsEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.Restricted("notice") || s.Restricted("ticket") {
		t.Fatalf("unexpected restricted kinds: %v", s.RestrictedKinds)
	}
	if !s.Notifies("ticket") {
		t.Fatalf("unexpected notify kinds: %v", s.NotifyKinds)
	}
	if len(s.NotifyRoles) != 2 {
		t.Fatalf("unexpected roles: %v", s.NotifyRoles)
	}
}

func TestDecodeSettingsEntityEmpty(t *testing.T) {
	s, err := decodeSettingsEntity([]byte(`{"PartitionKey":"settings","RowKey":"settings"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Restricted("anything") || s.Notifies("anything") {
		t.Fatalf("zero settings must restrict nothing: %+v", s)
	}
}
