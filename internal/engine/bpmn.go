package engine

import (
	"encoding/xml"
	"fmt"
)

const bpmnNamespace = "http://www.omg.org/spec/BPMN/20100524/MODEL"

type xmlDefinitions struct {
	XMLName         xml.Name `xml:"bpmn2:definitions"`
	Namespace       string   `xml:"xmlns:bpmn2,attr"`
	ID              string   `xml:"id,attr"`
	TargetNamespace string   `xml:"targetNamespace,attr"`
	Process         xmlProcess
}

type xmlProcess struct {
	XMLName      xml.Name `xml:"bpmn2:process"`
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name,attr"`
	IsExecutable bool     `xml:"isExecutable,attr"`
	LaneSet      xmlLaneSet
	Start        xmlStartEvent
	Tasks        []xmlUserTask
	End          xmlEndEvent
	Flows        []xmlSequenceFlow
}

type xmlLaneSet struct {
	XMLName xml.Name `xml:"bpmn2:laneSet"`
	ID      string   `xml:"id,attr"`
	Lanes   []xmlLane
}

type xmlLane struct {
	XMLName  xml.Name `xml:"bpmn2:lane"`
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	NodeRefs []string `xml:"bpmn2:flowNodeRef"`
}

type xmlStartEvent struct {
	XMLName  xml.Name `xml:"bpmn2:startEvent"`
	ID       string   `xml:"id,attr"`
	Outgoing string   `xml:"bpmn2:outgoing"`
}

type xmlUserTask struct {
	XMLName       xml.Name `xml:"bpmn2:userTask"`
	ID            string   `xml:"id,attr"`
	Name          string   `xml:"name,attr"`
	Documentation string   `xml:"bpmn2:documentation,omitempty"`
	Incoming      string   `xml:"bpmn2:incoming"`
	Outgoing      string   `xml:"bpmn2:outgoing"`
}

type xmlEndEvent struct {
	XMLName  xml.Name `xml:"bpmn2:endEvent"`
	ID       string   `xml:"id,attr"`
	Incoming string   `xml:"bpmn2:incoming"`
}

type xmlSequenceFlow struct {
	XMLName   xml.Name `xml:"bpmn2:sequenceFlow"`
	ID        string   `xml:"id,attr"`
	SourceRef string   `xml:"sourceRef,attr"`
	TargetRef string   `xml:"targetRef,attr"`
}

// GenerateBPMN renders a process definition as BPMN 2.0 XML. Activities
// become a linear chain of user tasks between a start and an end event,
// with one lane per participant. The process element id derives from
// the model id so the diagram stays traceable to its database record.
func (e *gemini) GenerateBPMN(def *ProcessDefinition, modelID int64) (string, error) {
	if def == nil || len(def.Activities) == 0 {
		return "", fmt.Errorf("%w: no activities", ErrGeneration)
	}
	if len(def.Participants) == 0 {
		return "", fmt.Errorf("%w: no participants", ErrGeneration)
	}
	if modelID < 1 {
		return "", fmt.Errorf("%w: invalid model id %d", ErrGeneration, modelID)
	}

	process := xmlProcess{
		ID:   fmt.Sprintf("Process_%d", modelID),
		Name: def.ProcessName,
		Start: xmlStartEvent{
			ID:       "StartEvent_1",
			Outgoing: "Flow_1",
		},
		End: xmlEndEvent{
			ID:       "EndEvent_1",
			Incoming: fmt.Sprintf("Flow_%d", len(def.Activities)+1),
		},
	}

	laneFor := make(map[string]int, len(def.Participants))
	lanes := make([]xmlLane, 0, len(def.Participants))
	for i, participant := range def.Participants {
		laneFor[participant] = i
		lanes = append(lanes, xmlLane{
			ID:   fmt.Sprintf("Lane_%d", i+1),
			Name: participant,
		})
	}

	// Start and end events sit in the first participant's lane.
	lanes[0].NodeRefs = append(lanes[0].NodeRefs, process.Start.ID)

	for i, activity := range def.Activities {
		task := xmlUserTask{
			ID:            fmt.Sprintf("Activity_%d", i+1),
			Name:          activity.Name,
			Documentation: activity.Description,
			Incoming:      fmt.Sprintf("Flow_%d", i+1),
			Outgoing:      fmt.Sprintf("Flow_%d", i+2),
		}
		process.Tasks = append(process.Tasks, task)

		lane := 0
		if idx, ok := laneFor[activity.Participant]; ok {
			lane = idx
		}
		lanes[lane].NodeRefs = append(lanes[lane].NodeRefs, task.ID)
	}
	lanes[0].NodeRefs = append(lanes[0].NodeRefs, process.End.ID)

	process.LaneSet = xmlLaneSet{
		ID:    "LaneSet_1",
		Lanes: lanes,
	}

	nodes := make([]string, 0, len(def.Activities)+2)
	nodes = append(nodes, process.Start.ID)
	for _, task := range process.Tasks {
		nodes = append(nodes, task.ID)
	}
	nodes = append(nodes, process.End.ID)

	for i := 0; i < len(nodes)-1; i++ {
		process.Flows = append(process.Flows, xmlSequenceFlow{
			ID:        fmt.Sprintf("Flow_%d", i+1),
			SourceRef: nodes[i],
			TargetRef: nodes[i+1],
		})
	}

	defs := xmlDefinitions{
		Namespace:       bpmnNamespace,
		ID:              fmt.Sprintf("Definitions_%d", modelID),
		TargetNamespace: bpmnNamespace,
		Process:         process,
	}

	out, err := xml.MarshalIndent(defs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return xml.Header + string(out), nil
}
