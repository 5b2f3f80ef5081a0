package graph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
)

// patch builds oscillator -> gain -> destination nodes without links.
func patch(t *testing.T) (*graph.State, *graph.Node, *graph.Node, *graph.Node) {
	t.Helper()
	s, osc := addNode(t, graph.NewState(), "oscillator")
	s, gain := addNode(t, s, "gain")
	s, dst := addNode(t, s, "destination")
	return s, osc, gain, dst
}

func allPorts(s *graph.State) []graph.Port {
	var out []graph.Port
	for _, n := range s.OrderedNodes() {
		out = append(out, n.Ports()...)
	}
	return out
}

func TestAddConnection_Scenario(t *testing.T) {
	s, osc, gain, _ := patch(t)

	s1, err := graph.AddConnection(osc.ID, 0, gain.ID, 0, s)
	require.NoError(t, err)
	require.Len(t, s1.Connections, 1)
	c := s1.Connections[0]
	assert.Equal(t, graph.ConnectionID("Connection-1"), c.ID)
	assert.Equal(t, osc.OutputPorts[0].ID, c.Source)
	assert.Equal(t, gain.InputPorts[0].ID, c.Target)

	s2, err := graph.AddConnection(osc.ID, 0, gain.ID, 0, s1)
	require.NoError(t, err)
	assert.Len(t, s2.Connections, 1)

	s3 := graph.Remove([]graph.Ref{graph.NodeRef(osc.ID)}, s2)
	assert.Contains(t, s3.Nodes, gain.ID)
	assert.Empty(t, s3.Connections)
}

func TestAddConnection_BadReferences(t *testing.T) {
	s, osc, gain, _ := patch(t)
	_, err := graph.AddConnection("Node-77", 0, gain.ID, 0, s)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	_, err = graph.AddConnection(osc.ID, 0, "Node-77", 0, s)
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	_, err = graph.AddConnection(osc.ID, 1, gain.ID, 0, s)
	assert.ErrorIs(t, err, graph.ErrPortNotFound)
	_, err = graph.AddConnection(osc.ID, 0, osc.ID, 0, s)
	assert.ErrorIs(t, err, graph.ErrPortNotFound, "oscillator has no inputs")
}

func TestKindsCompatible(t *testing.T) {
	cases := []struct {
		a, b graph.PortKind
		want bool
	}{
		{graph.PortOutput, graph.PortInput, true},
		{graph.PortOutput, graph.PortAudioParam, true},
		{graph.PortInput, graph.PortInput, false},
		{graph.PortOutput, graph.PortOutput, false},
		{graph.PortInput, graph.PortAudioParam, false},
		{graph.PortAudioParam, graph.PortAudioParam, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s-%s", tc.a, tc.b), func(t *testing.T) {
			assert.Equal(t, tc.want, graph.KindsCompatible(tc.a, tc.b))
			assert.Equal(t, tc.want, graph.KindsCompatible(tc.b, tc.a))
		})
	}
}

func TestCanConnect_SymmetricOverAllPairs(t *testing.T) {
	s, osc, gain, _ := patch(t)
	s, err := graph.AddConnection(osc.ID, 0, gain.ID, 0, s)
	require.NoError(t, err)

	ports := allPorts(s)
	for _, p := range ports {
		for _, q := range ports {
			assert.Equal(t,
				graph.CanConnect(p.ID, q.ID, s),
				graph.CanConnect(q.ID, p.ID, s),
				"%s <-> %s", p.ID, q.ID)
		}
	}
}

func TestCanConnect_NoSelfLoops(t *testing.T) {
	s, osc, gain, _ := patch(t)
	for _, p := range allPorts(s) {
		assert.False(t, graph.CanConnect(p.ID, p.ID, s), p.ID)
	}
	// gain's own output into its own gain param: same node.
	assert.False(t, graph.CanConnect(gain.OutputPorts[0].ID, gain.ParamPorts["gain"].ID, s))
	assert.False(t, graph.CanConnect(gain.OutputPorts[0].ID, gain.InputPorts[0].ID, s))
	assert.True(t, graph.CanConnect(osc.OutputPorts[0].ID, gain.ParamPorts["gain"].ID, s))
}

func TestCanConnect_UnknownPort(t *testing.T) {
	s, osc, _, _ := patch(t)
	assert.False(t, graph.CanConnect(osc.OutputPorts[0].ID, "ghost", s))
	assert.False(t, graph.CanConnect("ghost", osc.OutputPorts[0].ID, s))
}

func TestDoAddConnection_DuplicateEitherDirection(t *testing.T) {
	s, osc, gain, _ := patch(t)
	out, in := osc.OutputPorts[0].ID, gain.InputPorts[0].ID

	s1 := graph.DoAddConnection(out, in, s)
	require.Len(t, s1.Connections, 1)
	assert.True(t, graph.AreAlreadyConnected(in, out, s1))

	assert.Same(t, s1, graph.DoAddConnection(out, in, s1))
	assert.Same(t, s1, graph.DoAddConnection(in, out, s1))
}

func TestDoAddConnection_IllegalIsNoOp(t *testing.T) {
	s, osc, gain, dst := patch(t)
	assert.Same(t, s, graph.DoAddConnection(gain.InputPorts[0].ID, dst.InputPorts[0].ID, s))
	assert.Same(t, s, graph.DoAddConnection(osc.OutputPorts[0].ID, gain.OutputPorts[0].ID, s))
}

func TestDoAddConnection_ModulationAndReverseLabels(t *testing.T) {
	s, osc, gain, dst := patch(t)
	// Drawn from the input side: still legal.
	s = graph.DoAddConnection(dst.InputPorts[0].ID, gain.OutputPorts[0].ID, s)
	// LFO style modulation of the gain parameter.
	s = graph.DoAddConnection(osc.OutputPorts[0].ID, gain.ParamPorts["gain"].ID, s)
	require.Len(t, s.Connections, 2)
	assert.Equal(t, graph.ConnectionID("Connection-2"), s.Connections[1].ID)
}

func TestTemporaryConnection_Protocol(t *testing.T) {
	s, osc, gain, _ := patch(t)

	_, err := graph.CreateTemporaryConnection("ghost", s)
	assert.ErrorIs(t, err, graph.ErrPortNotFound)

	_, err = graph.ApplyTemporaryConnection(gain.InputPorts[0].ID, s)
	assert.ErrorIs(t, err, graph.ErrNoTemporaryConnection)

	// The target is resolved before the pending port is looked at.
	_, err = graph.ApplyTemporaryConnection("ghost", s)
	assert.ErrorIs(t, err, graph.ErrPortNotFound)

	pending, err := graph.CreateTemporaryConnection(osc.OutputPorts[0].ID, s)
	require.NoError(t, err)
	require.NotNil(t, pending.TemporaryConnectionPort)
	assert.Equal(t, osc.OutputPorts[0], *pending.TemporaryConnectionPort)
	assert.Nil(t, s.TemporaryConnectionPort)

	_, err = graph.ApplyTemporaryConnection("ghost", pending)
	assert.ErrorIs(t, err, graph.ErrPortNotFound)

	done, err := graph.ApplyTemporaryConnection(gain.InputPorts[0].ID, pending)
	require.NoError(t, err)
	assert.Nil(t, done.TemporaryConnectionPort)
	assert.Len(t, done.Connections, 1)
}

func TestTemporaryConnection_IllegalTargetStillClears(t *testing.T) {
	s, osc, _, _ := patch(t)
	pending, err := graph.CreateTemporaryConnection(osc.OutputPorts[0].ID, s)
	require.NoError(t, err)

	done, err := graph.ApplyTemporaryConnection(osc.OutputPorts[0].ID, pending)
	require.NoError(t, err)
	assert.Nil(t, done.TemporaryConnectionPort)
	assert.Empty(t, done.Connections)

	cancelled := graph.RemoveTemporaryConnection(pending)
	assert.Nil(t, cancelled.TemporaryConnectionPort)
	assert.NotNil(t, pending.TemporaryConnectionPort)
}

// TestInvariants_RandomEditing drives a long mixed command sequence and
// checks id uniqueness and the absence of dangling connections after every
// step.
func TestInvariants_RandomEditing(t *testing.T) {
	kinds := []string{"oscillator", "gain", "biquadFilter", "delay", "destination"}
	s := graph.NewState()
	for step := 0; step < 120; step++ {
		switch step % 6 {
		case 0, 1:
			s, _ = addNode(t, s, kinds[step%len(kinds)])
		case 2, 3:
			ports := allPorts(s)
			if len(ports) > 1 {
				a := ports[(step*7)%len(ports)]
				b := ports[(step*13+5)%len(ports)]
				s = graph.DoAddConnection(a.ID, b.ID, s)
			}
		case 4:
			ct := graph.CreateContainer("c", geom.Bounds{Width: 50, Height: 50}, s)
			var err error
			s, err = graph.AddContainer(ct, s)
			require.NoError(t, err)
		case 5:
			if step%4 == 1 && len(s.NodeOrder) > 0 {
				s = graph.Remove([]graph.Ref{graph.NodeRef(s.NodeOrder[0])}, s)
			}
		}
		assertInvariants(t, s)
	}
}

func assertInvariants(t *testing.T, s *graph.State) {
	t.Helper()
	ids := map[string]bool{}
	unique := func(id string) {
		assert.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
	}
	require.Len(t, s.NodeOrder, len(s.Nodes))
	for _, id := range s.NodeOrder {
		n, ok := s.Nodes[id]
		require.True(t, ok, "order references missing node %s", id)
		unique(string(id))
		for _, p := range n.Ports() {
			unique(string(p.ID))
		}
	}
	for _, c := range s.Connections {
		unique(string(c.ID))
		_, _, ok := graph.FindPort(c.Source, s)
		assert.True(t, ok, "dangling source %s", c.Source)
		_, _, ok = graph.FindPort(c.Target, s)
		assert.True(t, ok, "dangling target %s", c.Target)
	}
	for id := range s.Containers {
		unique(string(id))
	}
}
