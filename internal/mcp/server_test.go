package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stroke-triage/internal/config"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/triage"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func ptr(v float64) *float64 { return &v }

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.AppConfig{DataPath: t.TempDir(), Simulations: 200, Seed: 9}
	return NewServer(cfg, triage.DefaultParams(), "test")
}

func linkedNetwork(transfer *float64) []CenterInput {
	return []CenterInput{
		{ID: "P1", Type: "Primary", TravelMinutes: ptr(15), TransferTo: "C1", TransferMinutes: transfer},
		{ID: "C1", Type: "Comprehensive", TravelMinutes: ptr(50)},
	}
}

func TestHandleEvaluateTriage(t *testing.T) {
	s := testServer(t)
	in := EvaluateTriageInput{
		Patient: PatientInput{Age: 70, Sex: "male", RACE: ptr(5), TimeSinceSymptoms: 50},
		Centers: linkedNetwork(ptr(60)),
	}
	_, out, err := s.handleEvaluateTriage(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Draws != 200 {
		t.Errorf("Expected configured 200 draws, got %d", out.Draws)
	}
	if len(out.Strategies) != 3 {
		t.Errorf("Expected three strategies, got %d", len(out.Strategies))
	}
	total := 0
	for _, n := range out.Counts {
		total += n
	}
	if total != out.Draws-out.Infeasible {
		t.Errorf("Expected counts to cover decided draws, got %d", total)
	}
	if out.OptimalDestination == "" {
		t.Error("Expected an optimal destination")
	}
	if _, err := json.Marshal(out); err != nil {
		t.Errorf("Expected output to encode as JSON: %v", err)
	}
}

func TestHandleEvaluateTriage_Charts(t *testing.T) {
	s := testServer(t)
	in := EvaluateTriageInput{
		Patient: PatientInput{Age: 70, Sex: "male", RACE: ptr(5), TimeSinceSymptoms: 50},
		Centers: linkedNetwork(ptr(60)),
		Run:     RunInput{Simulations: 50, Charts: true},
	}
	_, out, err := s.handleEvaluateTriage(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(out.Charts) != 3 {
		t.Fatalf("Expected network, pie and QALY charts, got %d", len(out.Charts))
	}
	if !strings.Contains(out.Charts[0], "flowchart LR") {
		t.Errorf("Expected the network flowchart first, got:\n%s", out.Charts[0])
	}

	in.Run.Charts = false
	_, out, _ = s.handleEvaluateTriage(context.Background(), nil, in)
	if len(out.Charts) != 0 {
		t.Errorf("Expected no charts unless requested, got %d", len(out.Charts))
	}
}

func TestHandleEvaluateTriage_UnknownTransferOmitsMedians(t *testing.T) {
	s := testServer(t)
	in := EvaluateTriageInput{
		Patient: PatientInput{Age: 70, Sex: "female", NIHSS: ptr(12), TimeSinceSymptoms: 50},
		Centers: linkedNetwork(nil),
		Run:     RunInput{Simulations: 50},
	}
	_, out, err := s.handleEvaluateTriage(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, st := range out.Strategies {
		if st.Kind != "drip_and_ship" {
			continue
		}
		if st.MedianQALY != nil || st.Feasible != 0 || st.Optimal != 0 {
			t.Errorf("Expected drip-and-ship never feasible, got %+v", st)
		}
	}
	if _, err := json.Marshal(out); err != nil {
		t.Errorf("Expected NaN medians to be dropped before encoding: %v", err)
	}
}

func TestHandleEvaluateTriage_InvalidInput(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name string
		in   EvaluateTriageInput
	}{
		{"NoScore", EvaluateTriageInput{Patient: PatientInput{Age: 70, Sex: "male"}, Centers: linkedNetwork(nil)}},
		{"BadSex", EvaluateTriageInput{Patient: PatientInput{Age: 70, Sex: "x", RACE: ptr(3)}, Centers: linkedNetwork(nil)}},
		{"NoCenters", EvaluateTriageInput{Patient: PatientInput{Age: 70, Sex: "male", RACE: ptr(3)}}},
		{"TooManyDraws", EvaluateTriageInput{
			Patient: PatientInput{Age: 70, Sex: "male", RACE: ptr(3)},
			Centers: linkedNetwork(nil),
			Run:     RunInput{Simulations: MaxSimulations + 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.handleEvaluateTriage(context.Background(), nil, tt.in); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	_, _, err := s.handleEvaluateTriage(context.Background(), nil, tests[0].in)
	if !errors.Is(err, patient.ErrInvalidPatient) {
		t.Errorf("Expected ErrInvalidPatient, got %v", err)
	}
}

func TestHandleEvaluateLocation(t *testing.T) {
	s := testServer(t)
	hospitals := "CenterID,CenterType,DTN_1st,DTN_Median,DTN_3rd,DTP_1st,DTP_Median,DTP_3rd,destinationID,transfer_time\n" +
		"1,Comprehensive,39,52,70,83,145,192,,\n2,Primary,47,61,83,,,,1,40\n"
	times := "ID,1,2\n10,50,15\n11,,\n"
	for name, content := range map[string]string{"hospitals.csv": hospitals, "times.csv": times} {
		if err := os.WriteFile(filepath.Join(s.cfg.DataPath, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	in := EvaluateLocationInput{
		Patient:       PatientInput{Age: 65, Sex: "male", RACE: ptr(7), TimeSinceSymptoms: 40},
		HospitalsFile: "hospitals.csv",
		TimesFile:     "times.csv",
		Location:      "10",
		Run:           RunInput{Simulations: 40},
	}
	_, out, err := s.handleEvaluateLocation(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Draws != 40 || len(out.Strategies) != 3 {
		t.Errorf("Unexpected output %+v", out)
	}

	in.Location = "11"
	if _, _, err := s.handleEvaluateLocation(context.Background(), nil, in); !errors.Is(err, triage.ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates for an unreachable location, got %v", err)
	}
	in.Location = "99"
	if _, _, err := s.handleEvaluateLocation(context.Background(), nil, in); err == nil {
		t.Error("Expected an error for an unknown location")
	}
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	s := testServer(t)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{
		Name: "evaluate_triage",
		Arguments: map[string]any{
			"patient": map[string]any{"age": 70, "sex": "male", "race": 5, "time_since_symptoms": 50},
			"centers": []map[string]any{
				{"id": "P1", "type": "Primary", "travel_minutes": 15, "transfer_to": "C1", "transfer_minutes": 60},
				{"id": "C1", "type": "Comprehensive", "travel_minutes": 50},
			},
			"run": map[string]any{"simulations": 30},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("Expected a successful tool call, got %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Error("Expected the structured output mirrored as content")
	}
}
