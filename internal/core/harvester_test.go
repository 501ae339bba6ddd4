package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/observability"
)

func TestHarvest_Descendants(t *testing.T) {
	ref := &driver.MockReferential{
		Children: map[model.ID][]model.ID{
			"1039632": {"520677", "537646"},
		},
		Descriptions: map[model.ID]model.Description{
			"1039632": {Acronym: "UCA", Status: model.StatusValid, Type: model.TypeRegroupInstitution},
			"520677":  {Acronym: "LJAD", Status: model.StatusValid, Type: model.TypeLaboratory},
			"537646":  {Acronym: "I3S", Status: model.StatusValid, Type: model.TypeLaboratory},
		},
		Counts: map[model.ID]int{"1039632": 100, "520677": 10, "537646": 20},
	}
	var logs bytes.Buffer
	h := newTestHarvester(ref, &logs)

	res, err := h.Harvest(context.Background(), " 1039632 ", model.Descendants)

	require.NoError(t, err)
	assert.Equal(t, "harvest-1", res.ID)
	assert.Equal(t, model.ID("1039632"), res.Root)
	assert.Equal(t, model.HarvestOK, res.Status)
	assert.Equal(t, []model.Edge{
		{From: "1039632", To: "520677"},
		{From: "1039632", To: "537646"},
	}, res.Edges)
	require.Len(t, res.Records, 3)

	// every edge endpoint has exactly one record
	for _, e := range res.Edges {
		_, ok := res.Record(e.From)
		assert.True(t, ok, "missing record for %s", e.From)
		_, ok = res.Record(e.To)
		assert.True(t, ok, "missing record for %s", e.To)
	}

	assert.NotEmpty(t, res.Logs)
	assert.Contains(t, logs.String(), "harvest finished")
}

func TestHarvest_AncestorsWithoutParentsIsEmpty(t *testing.T) {
	ref := &driver.MockReferential{
		Descriptions: map[model.ID]model.Description{
			"409": {Acronym: "CNRS", Status: model.StatusValid, Type: model.TypeInstitution},
		},
	}

	res, err := newTestHarvester(ref, &bytes.Buffer{}).Harvest(context.Background(), "409", model.Ancestors)

	require.NoError(t, err)
	assert.Equal(t, model.HarvestEmpty, res.Status)
	assert.Empty(t, res.Edges)
	require.Len(t, res.Records, 1)
	assert.Equal(t, model.ID("409"), res.Records[0].ID)
	assert.Equal(t, "CNRS", res.Records[0].Acronym)
}

func TestHarvest_DescribeFailureFailsWholeHarvest(t *testing.T) {
	boom := &driver.TransportError{Operation: driver.OpDescribe, ID: "537646", StatusCode: 500, Err: errors.New("solr down")}
	ref := &driver.MockReferential{
		Children: map[model.ID][]model.ID{
			"1039632": {"520677", "537646"},
		},
		Errs: map[string]error{"describe:537646": boom},
	}

	res, err := newTestHarvester(ref, &bytes.Buffer{}).Harvest(context.Background(), "1039632", model.Descendants)

	require.Error(t, err)
	assert.Nil(t, res)

	var he *HarvestError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "harvest-1", he.HarvestID)
	assert.NotEmpty(t, he.Logs)

	f, ok := driver.Classify(err)
	require.True(t, ok)
	assert.Equal(t, "transport", f.Kind)
	assert.Equal(t, driver.OpDescribe, f.Operation)
	assert.Equal(t, model.ID("537646"), f.ID)
}

func TestHarvest_TraversalFailure(t *testing.T) {
	ref := &driver.MockReferential{
		Parents: map[model.ID][]model.ID{"409": {"117617"}},
		Errs: map[string]error{
			"find_parents:117617": &driver.ParseError{Operation: driver.OpFindParents, ID: "117617", Err: errors.New("bad json")},
		},
	}

	_, err := newTestHarvester(ref, &bytes.Buffer{}).Harvest(context.Background(), "409", model.Ancestors)

	var pe *driver.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.ID("117617"), pe.ID)
	assert.Zero(t, ref.TotalCalls(driver.OpDescribe))
}

func TestHarvest_InvalidRoot(t *testing.T) {
	for _, root := range []string{"  ", "abc", "1 OR parentDocid_i:*", "12.5", "-3"} {
		t.Run(root, func(t *testing.T) {
			ref := &driver.MockReferential{}

			_, err := newTestHarvester(ref, &bytes.Buffer{}).Harvest(context.Background(), root, model.Descendants)

			assert.ErrorIs(t, err, ErrInvalidRoot)
			assert.Zero(t, ref.TotalCalls(driver.OpFindChildren))
			assert.Zero(t, ref.TotalCalls(driver.OpDescribe))
		})
	}
}

func TestHarvest_QuotedNumericRoot(t *testing.T) {
	ref := &driver.MockReferential{}

	res, err := newTestHarvester(ref, &bytes.Buffer{}).Harvest(context.Background(), `"00409"`, model.Descendants)

	require.NoError(t, err)
	assert.Equal(t, model.ID("409"), res.Root)
}

func TestHarvest_RecordsMetrics(t *testing.T) {
	ref := &driver.MockReferential{Children: map[model.ID][]model.ID{"1": {"2"}}}
	h := newTestHarvester(ref, &bytes.Buffer{})
	h.Metrics = observability.NewMetrics(prometheus.NewRegistry())

	_, err := h.Harvest(context.Background(), "1", model.Descendants)
	require.NoError(t, err)
	_, err = h.Harvest(context.Background(), "2", model.Descendants)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.HarvestsTotal.WithLabelValues("desc", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.HarvestsTotal.WithLabelValues("desc", "empty")))
}

func TestHarvest_EachRunGetsItsOwnConsole(t *testing.T) {
	ref := &driver.MockReferential{Children: map[model.ID][]model.ID{"1": {"2"}}}
	h := newTestHarvester(ref, &bytes.Buffer{})

	first, err := h.Harvest(context.Background(), "1", model.Descendants)
	require.NoError(t, err)
	second, err := h.Harvest(context.Background(), "1", model.Descendants)
	require.NoError(t, err)

	assert.Equal(t, len(first.Logs), len(second.Logs))
	for _, line := range second.Logs {
		assert.NotContains(t, line, "harvest-1")
	}
}
