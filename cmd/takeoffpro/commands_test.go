package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints([]string{"0.1,0.2", " 0.5 , 1"})
	require.NoError(t, err)
	assert.Equal(t, []model.Point{{X: 0.1, Y: 0.2}, {X: 0.5, Y: 1}}, pts)

	_, err = parsePoints([]string{"0.1"})
	assert.Error(t, err)
	_, err = parsePoints([]string{"a,b"})
	assert.Error(t, err)
}

func TestPlanIndex(t *testing.T) {
	i, err := planIndex("2", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	for _, arg := range []string{"0", "4", "x"} {
		_, err := planIndex(arg, 3)
		assert.Error(t, err, arg)
	}
}

func TestSessionPath(t *testing.T) {
	assert.Equal(t, "house.takeoff", sessionPath("house"))
	assert.Equal(t, "house.json", sessionPath("house.json"))
}

func TestUsePlanArg(t *testing.T) {
	s := model.NewSession("p")
	s.AddPlan("a.png")
	s.AddPlan("b.png")
	require.Equal(t, 1, s.ActivePlan)

	rest, err := usePlanArg(&s, []string{"1", "count", "el-001"})
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "el-001"}, rest)
	assert.Equal(t, 0, s.ActivePlan)

	rest, err = usePlanArg(&s, []string{"length", "fl-003"})
	require.NoError(t, err)
	assert.Equal(t, []string{"length", "fl-003"}, rest)
	assert.Equal(t, 0, s.ActivePlan, "no plan number keeps the active plan")

	_, err = usePlanArg(&s, []string{"3", "count"})
	assert.Error(t, err)
	assert.Equal(t, 0, s.ActivePlan)
}
