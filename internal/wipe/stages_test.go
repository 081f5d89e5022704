package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerotrace/internal/device"
)

func TestStagePlanNIST(t *testing.T) {
	plan := stagePlanFor(MethodNIST80088, device.KindDevice, 0)
	require.Len(t, plan, 3)

	assert.Equal(t, stageOverwrite, plan[0].kind)
	assert.Equal(t, "clear", plan[0].name)
	assert.Equal(t, 10.0, plan[0].from)
	assert.Equal(t, 60.0, plan[0].to)

	assert.Equal(t, stageVerify, plan[1].kind)
	assert.Equal(t, 60.0, plan[1].from)
	assert.Equal(t, 70.0, plan[1].to)
	assert.True(t, plan[1].fatalOnFail, "верификация clear-этапа обязательна")

	assert.Equal(t, stagePurge, plan[2].kind)
	assert.Equal(t, 70.0, plan[2].from)
	assert.Equal(t, 100.0, plan[2].to)
}

func TestStagePlanFileAppendsDelete(t *testing.T) {
	plan := stagePlanFor(MethodSinglePass, device.KindFile, 0)
	require.Len(t, plan, 2)

	assert.Equal(t, stageOverwrite, plan[0].kind)
	assert.Equal(t, 95.0, plan[0].to, "перезапись файла освобождает хвост полосы под удаление")

	last := plan[len(plan)-1]
	assert.Equal(t, stageDelete, last.kind)
	assert.Equal(t, 95.0, last.from)
	assert.Equal(t, 100.0, last.to)
}

func TestStagePlanDeviceNoDelete(t *testing.T) {
	plan := stagePlanFor(MethodSinglePass, device.KindDevice, 0)
	require.Len(t, plan, 1)
	assert.Equal(t, stageOverwrite, plan[0].kind)
	assert.Equal(t, 100.0, plan[0].to)
}

func TestStagePlanGutmannBands(t *testing.T) {
	plan := stagePlanFor(MethodGutmann, device.KindDevice, 0)
	require.Len(t, plan, 35)

	// Полоса делится равномерно и покрывает 0..100 без разрывов
	assert.Equal(t, 0.0, plan[0].from)
	for i := 1; i < len(plan); i++ {
		assert.Equal(t, plan[i-1].to, plan[i].from)
	}
	assert.InDelta(t, 100.0, plan[len(plan)-1].to, 1e-9)
}

func TestStagePlanPassCap(t *testing.T) {
	plan := stagePlanFor(MethodGutmann, device.KindDevice, 5)
	require.Len(t, plan, 5)
	assert.Equal(t, 5, overwritePassCount(plan))

	// Ограничение больше плана не расширяет его
	plan = stagePlanFor(MethodThreePass, device.KindDevice, 10)
	require.Len(t, plan, 3)
}

func TestStagePlanDelegatedMethods(t *testing.T) {
	plan := stagePlanFor(MethodCryptoErase, device.KindDevice, 0)
	require.Len(t, plan, 1)
	assert.Equal(t, stagePurge, plan[0].kind)
	assert.Equal(t, 1, overwritePassCount(plan), "чистая делегация считается одной операцией")
}

func TestCapPasses(t *testing.T) {
	patterns := []Pattern{patternZero, patternOnes, patternRandom}
	assert.Len(t, capPasses(patterns, 0), 3)
	assert.Len(t, capPasses(patterns, 2), 2)
	assert.Len(t, capPasses(patterns, 99), 3)
}
