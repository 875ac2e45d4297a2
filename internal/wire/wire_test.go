package wire

import (
	"bytes"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	args := RequestWorkArgs{
		RunnerID:      7,
		CurrentWork:   map[uint64]int{1: 3, 2: 1},
		CompletedData: []DataRef{{ScenarioID: 1, DataID: 99}},
		MaxWork:       5,
		ConfigVersion: 12,
	}

	if err := WriteFrame(&buf, MsgRequestWork, args); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	msgType, payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if msgType != MsgRequestWork {
		t.Fatalf("expected msg type %d, got %d", MsgRequestWork, msgType)
	}

	var decoded RequestWorkArgs
	if err := DecodePayload(payload, &decoded); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}

	if decoded.RunnerID != args.RunnerID || decoded.MaxWork != args.MaxWork {
		t.Fatalf("decoded args do not match: %+v", decoded)
	}
	if decoded.CurrentWork[1] != 3 || decoded.CurrentWork[2] != 1 {
		t.Fatalf("decoded current_work map mismatch: %+v", decoded.CurrentWork)
	}
	if len(decoded.CompletedData) != 1 || decoded.CompletedData[0].DataID != 99 {
		t.Fatalf("decoded completed data mismatch: %+v", decoded.CompletedData)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	if _, _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected an error for an oversized frame length")
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, MsgHello, HelloArgs{}); err != nil {
		t.Fatalf("WriteFrame hello: %v", err)
	}
	if err := WriteFrame(&buf, MsgBye, ByeArgs{RunnerID: 3}); err != nil {
		t.Fatalf("WriteFrame bye: %v", err)
	}

	msgType1, _, err := ReadFrame(&buf)
	if err != nil || msgType1 != MsgHello {
		t.Fatalf("expected first frame to be hello, got type=%d err=%v", msgType1, err)
	}
	msgType2, payload2, err := ReadFrame(&buf)
	if err != nil || msgType2 != MsgBye {
		t.Fatalf("expected second frame to be bye, got type=%d err=%v", msgType2, err)
	}
	var bye ByeArgs
	if err := DecodePayload(payload2, &bye); err != nil || bye.RunnerID != 3 {
		t.Fatalf("decoded bye mismatch: %+v err=%v", bye, err)
	}
}
