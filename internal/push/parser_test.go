package push

import (
	"context"
	"testing"
)

func TestPushResultParserSuccessCode(t *testing.T) {
	p := NewPushResultParser(nil)
	payload := map[string]string{"trainingId": "train-1"}
	reply := []byte(`{"descCode":"200"}`)

	result, err := p.Parse(context.Background(), "classData", payload, reply)
	if err != nil {
		t.Fatalf("Parse() err = %v, want nil on descCode 200", err)
	}
	if result.trainID != "train-1" {
		t.Errorf("trainID = %q, want train-1", result.trainID)
	}
	if result.dataType != 1 {
		t.Errorf("dataType = %d, want 1 (classData)", result.dataType)
	}
}

func TestPushResultParserFailureExtractsErrorMsg(t *testing.T) {
	p := NewPushResultParser(nil)
	payload := map[string]string{"trainingId": "train-2"}
	reply := []byte(`{"descCode":"500","data":"{\"classData\":[{\"errormsg\":\"duplicate key\"}]}"}`)

	_, err := p.Parse(context.Background(), "classData", payload, reply)
	if err == nil {
		t.Fatal("Parse() err = nil, want an error on a non-200 descCode")
	}
	if err.Error() != "duplicate key" {
		t.Errorf("err = %q, want %q", err.Error(), "duplicate key")
	}
}

func TestPushResultParserMalformedReply(t *testing.T) {
	p := NewPushResultParser(nil)
	_, err := p.Parse(context.Background(), "classData", map[string]string{}, []byte("not json"))
	if err == nil {
		t.Error("Parse() on a non-JSON reply should return an error")
	}
}

func TestPushResultParserMissingDataField(t *testing.T) {
	p := NewPushResultParser(nil)
	_, err := p.Parse(context.Background(), "classData", map[string]string{}, []byte(`{"descCode":"500"}`))
	if err == nil {
		t.Error("Parse() on a failure reply missing 'data' should still return an error")
	}
}
