package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/verfahren/verfahren/internal/engine"
)

func newTestEngine() engine.Engine {
	return engine.New(
		engine.Config{APIKey: "test-key", AnalysisModel: "gemini-2.0-flash", EmbeddingModel: "text-embedding-004", EmbedWorkers: 4},
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestChunkTextSingleChunk(t *testing.T) {
	eng := newTestEngine()
	text := "Der Antrag wird bei der Behörde gestellt.\n\nDie Behörde prüft die Unterlagen."

	chunks := eng.ChunkText(text)
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Position != 0 {
		t.Errorf("position = %d, want 0", chunks[0].Position)
	}
	if !strings.Contains(chunks[0].Content, "Antrag") || !strings.Contains(chunks[0].Content, "Unterlagen") {
		t.Errorf("content missing paragraphs: %q", chunks[0].Content)
	}
	if chunks[0].TokenCount <= 0 {
		t.Errorf("token count = %d, want positive", chunks[0].TokenCount)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	eng := newTestEngine()

	for _, text := range []string{"", "   ", "\n\n\n\n"} {
		if chunks := eng.ChunkText(text); len(chunks) != 0 {
			t.Errorf("ChunkText(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestChunkTextSplitsLongDocuments(t *testing.T) {
	eng := newTestEngine()

	// Roughly 100 estimated tokens per paragraph, well past one chunk.
	paragraph := strings.Repeat("Verwaltungsverfahren nach geltendem Recht werden dokumentiert. ", 12)
	var sb strings.Builder
	for i := range 12 {
		fmt.Fprintf(&sb, "Abschnitt %d. %s\n\n", i+1, paragraph)
	}

	chunks := eng.ChunkText(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("chunk[%d] position = %d, want %d", i, chunk.Position, i)
		}
		if chunk.Content == "" {
			t.Errorf("chunk[%d] has empty content", i)
		}
	}

	// Every section heading must appear in some chunk.
	all := make([]string, len(chunks))
	for i, chunk := range chunks {
		all[i] = chunk.Content
	}
	joined := strings.Join(all, "\n\n")
	for i := range 12 {
		heading := fmt.Sprintf("Abschnitt %d.", i+1)
		if !strings.Contains(joined, heading) {
			t.Errorf("heading %q missing from chunks", heading)
		}
	}
}

func TestChunkTextOverlapCarriesTail(t *testing.T) {
	eng := newTestEngine()

	// Small tail paragraphs fit the overlap budget; large ones pad the
	// chunks to force a split.
	large := strings.Repeat("Die zuständige Stelle bearbeitet den eingegangenen Vorgang fristgerecht. ", 30)
	text := large + "\n\nKurzer Hinweis eins.\n\n" + large + "\n\nKurzer Hinweis zwei."

	chunks := eng.ChunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}

	// The short paragraph closing the first chunk repeats at the head of
	// the second.
	if !strings.Contains(chunks[0].Content, "Kurzer Hinweis eins.") {
		t.Fatalf("first chunk missing its tail paragraph: %q", chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, "Kurzer Hinweis eins.") {
		t.Errorf("second chunk does not start with the overlap: %q", chunks[1].Content)
	}
}

func TestChunkTextOversizedParagraph(t *testing.T) {
	eng := newTestEngine()

	// A single paragraph past the token limit becomes its own chunk and
	// must not repeat as overlap into the next.
	oversized := strings.Repeat("Bearbeitungsvermerk zur laufenden Verwaltungsakte mit allen Anlagen. ", 80)
	text := oversized + "\n\nSchlussbemerkung."

	chunks := eng.ChunkText(text)
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if strings.Contains(chunks[1].Content, "Bearbeitungsvermerk") {
		t.Errorf("oversized paragraph leaked into next chunk: %q", chunks[1].Content)
	}
	if chunks[1].Content != "Schlussbemerkung." {
		t.Errorf("second chunk = %q, want the trailing paragraph alone", chunks[1].Content)
	}
}

func sampleDefinition() *engine.ProcessDefinition {
	return &engine.ProcessDefinition{
		ProcessName:  "Baugenehmigungsverfahren",
		Participants: []string{"Antragsteller", "Bauamt"},
		Activities: []engine.Activity{
			{Name: "Antrag einreichen", Participant: "Antragsteller", Description: "Bauantrag mit Unterlagen einreichen."},
			{Name: "Unterlagen prüfen", Participant: "Bauamt"},
			{Name: "Bescheid erteilen", Participant: "Bauamt"},
		},
	}
}

func TestGenerateBPMN(t *testing.T) {
	eng := newTestEngine()

	xml, err := eng.GenerateBPMN(sampleDefinition(), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	wantFragments := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<bpmn2:definitions`,
		`xmlns:bpmn2="http://www.omg.org/spec/BPMN/20100524/MODEL"`,
		`id="Definitions_42"`,
		`<bpmn2:process id="Process_42" name="Baugenehmigungsverfahren"`,
		`<bpmn2:lane id="Lane_1" name="Antragsteller">`,
		`<bpmn2:lane id="Lane_2" name="Bauamt">`,
		`<bpmn2:startEvent id="StartEvent_1">`,
		`<bpmn2:userTask id="Activity_1" name="Antrag einreichen">`,
		`<bpmn2:documentation>Bauantrag mit Unterlagen einreichen.</bpmn2:documentation>`,
		`<bpmn2:userTask id="Activity_2" name="Unterlagen prüfen">`,
		`<bpmn2:userTask id="Activity_3" name="Bescheid erteilen">`,
		`<bpmn2:endEvent id="EndEvent_1">`,
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(xml, fragment) {
			t.Errorf("output missing %q", fragment)
		}
	}
}

func TestGenerateBPMNSequenceFlows(t *testing.T) {
	eng := newTestEngine()

	xml, err := eng.GenerateBPMN(sampleDefinition(), 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Linear chain: start, three activities, end.
	flows := []string{
		`<bpmn2:sequenceFlow id="Flow_1" sourceRef="StartEvent_1" targetRef="Activity_1">`,
		`<bpmn2:sequenceFlow id="Flow_2" sourceRef="Activity_1" targetRef="Activity_2">`,
		`<bpmn2:sequenceFlow id="Flow_3" sourceRef="Activity_2" targetRef="Activity_3">`,
		`<bpmn2:sequenceFlow id="Flow_4" sourceRef="Activity_3" targetRef="EndEvent_1">`,
	}
	for _, flow := range flows {
		if !strings.Contains(xml, flow) {
			t.Errorf("output missing %q", flow)
		}
	}
}

func TestGenerateBPMNLaneAssignment(t *testing.T) {
	eng := newTestEngine()

	def := sampleDefinition()
	// An activity naming an unknown participant falls into the first lane.
	def.Activities = append(def.Activities, engine.Activity{Name: "Akte schließen", Participant: "Registratur"})

	xml, err := eng.GenerateBPMN(def, 9)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	first := xml[strings.Index(xml, `name="Antragsteller"`):strings.Index(xml, `name="Bauamt"`)]
	for _, ref := range []string{"StartEvent_1", "Activity_1", "Activity_4", "EndEvent_1"} {
		if !strings.Contains(first, "<bpmn2:flowNodeRef>"+ref+"</bpmn2:flowNodeRef>") {
			t.Errorf("first lane missing node ref %q", ref)
		}
	}
}

func TestGenerateBPMNErrors(t *testing.T) {
	eng := newTestEngine()

	tests := []struct {
		name    string
		def     *engine.ProcessDefinition
		modelID int64
	}{
		{"nil definition", nil, 1},
		{"no activities", &engine.ProcessDefinition{ProcessName: "Leer", Participants: []string{"Amt"}}, 1},
		{
			"no participants",
			&engine.ProcessDefinition{
				ProcessName: "Leer",
				Activities:  []engine.Activity{{Name: "Prüfen"}},
			},
			1,
		},
		{"invalid model id", sampleDefinition(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.GenerateBPMN(tt.def, tt.modelID)
			if !errors.Is(err, engine.ErrGeneration) {
				t.Errorf("err = %v, want %v", err, engine.ErrGeneration)
			}
		})
	}
}

func TestExtractTextInvalidPDF(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.ExtractText(context.Background(), []byte("not a pdf at all"))
	if !errors.Is(err, engine.ErrExtraction) {
		t.Errorf("err = %v, want %v", err, engine.ErrExtraction)
	}
}

func TestExtractTextCanceledContext(t *testing.T) {
	eng := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ExtractText(ctx, []byte("%PDF-1.7"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want %v", err, context.Canceled)
	}
}
