package wipe

import (
	"fmt"

	"zerotrace/internal/device"
)

type stageKind int

const (
	stageOverwrite stageKind = iota
	stageVerify
	stagePurge
	stageDelete
)

// stage - один этап плана с полосой процентов прогресса
type stage struct {
	kind        stageKind
	pattern     Pattern
	name        string
	message     string
	from, to    float64
	fatalOnFail bool // только для verify
}

// stagePlanFor строит упорядоченный план этапов для метода. План -
// детерминированная функция метода, вида цели и пользовательского
// ограничения числа проходов.
func stagePlanFor(method Method, kind device.Kind, passCap int) []stage {
	isFile := kind == device.KindFile

	// Файловые цели завершаются удалением файла; последний этап
	// резервирует хвост полосы прогресса.
	overwriteEnd := 100.0
	if isFile {
		overwriteEnd = 95.0
	}

	var plan []stage

	switch method {
	case MethodSinglePass, MethodThreePass, MethodDoD522022M, MethodGutmann:
		patterns := capPasses(PlanFor(method), passCap)
		plan = overwriteStages(patterns, 0, overwriteEnd)

	case MethodNIST80088:
		// NIST 800-88: Clear (нули) + верификация + Purge.
		// Недоступность purge не фатальна - оркестратор выполнит
		// fallback-перезапись в той же полосе.
		plan = []stage{
			{kind: stageOverwrite, pattern: patternZero, name: "clear", message: "Clearing device (overwrite with zeros)...", from: 10, to: 60},
			{kind: stageVerify, name: "verify", message: "Verifying clear operation...", from: 60, to: 70, fatalOnFail: true},
			{kind: stagePurge, name: "purge", message: "Purging device...", from: 70, to: overwriteEnd},
		}

	case MethodCryptoErase, MethodAtaSanitize, MethodNvmeFormat:
		plan = []stage{
			{kind: stagePurge, name: "purge", message: "Delegating to hardware sanitize...", from: 0, to: overwriteEnd},
		}
	}

	if isFile {
		plan = append(plan, stage{
			kind:    stageDelete,
			name:    "delete",
			message: "Truncating and deleting file...",
			from:    95,
			to:      100,
		})
	}

	return plan
}

// overwriteStages равномерно делит полосу между проходами перезаписи
func overwriteStages(patterns []Pattern, from, to float64) []stage {
	if len(patterns) == 0 {
		return nil
	}

	stages := make([]stage, 0, len(patterns))
	width := (to - from) / float64(len(patterns))

	for i, p := range patterns {
		stages = append(stages, stage{
			kind:    stageOverwrite,
			pattern: p,
			name:    fmt.Sprintf("pass_%d", i+1),
			message: fmt.Sprintf("Pass %d/%d: writing %s...", i+1, len(patterns), p.String()),
			from:    from + float64(i)*width,
			to:      from + float64(i+1)*width,
		})
	}

	return stages
}

// capPasses применяет пользовательское ограничение числа проходов
func capPasses(patterns []Pattern, passCap int) []Pattern {
	if passCap > 0 && passCap < len(patterns) {
		return patterns[:passCap]
	}
	return patterns
}

// overwritePassCount считает проходы перезаписи в плане. Методы чистой
// делегации учитываются как одна операция.
func overwritePassCount(plan []stage) int {
	count := 0
	for _, st := range plan {
		if st.kind == stageOverwrite {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}
