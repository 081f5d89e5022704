package wipe

// Pattern определяет содержимое одного прохода перезаписи. Фиксированная
// последовательность байт тиражируется на весь буфер; Random означает
// свежие криптографически случайные данные для каждого буфера.
type Pattern struct {
	Bytes  []byte
	Random bool
}

var (
	patternZero   = Pattern{Bytes: []byte{0x00}}
	patternOnes   = Pattern{Bytes: []byte{0xFF}}
	patternRandom = Pattern{Random: true}
)

// String возвращает человекочитаемое имя паттерна
func (p Pattern) String() string {
	if p.Random {
		return "random"
	}
	if len(p.Bytes) == 1 {
		switch p.Bytes[0] {
		case 0x00:
			return "zero"
		case 0xFF:
			return "0xFF"
		}
	}
	return "fixed"
}

// PlanFor возвращает детерминированный план проходов для метода.
// Функция чистая: никакого скрытого состояния, повторный вызов даёт
// идентичный план.
//
// NIST 800-88 - процедура (clear + verify + purge), а не плоский список;
// здесь возвращается только его overwrite-составляющая (clear нулями).
// Методы аппаратной санитизации делегируются SanitizeProvider и не имеют
// локальных проходов: для них план пуст.
func PlanFor(method Method) []Pattern {
	switch method {
	case MethodSinglePass:
		return []Pattern{patternZero}
	case MethodThreePass, MethodDoD522022M:
		return []Pattern{patternZero, patternOnes, patternRandom}
	case MethodNIST80088:
		return []Pattern{patternZero}
	case MethodGutmann:
		return gutmannPlan()
	case MethodCryptoErase, MethodAtaSanitize, MethodNvmeFormat:
		return nil
	default:
		return nil
	}
}

// gutmannPlan воспроизводит каноническую опубликованную таблицу из 35
// проходов: 4 случайных, 27 фиксированных (включая ротации 0x92 0x49 0x24
// и 0x6D 0xB6 0xDB), 4 финальных случайных.
func gutmannPlan() []Pattern {
	plan := make([]Pattern, 0, 35)

	// Проходы 1-4: случайные данные
	for i := 0; i < 4; i++ {
		plan = append(plan, patternRandom)
	}

	// Проходы 5-31: фиксированные паттерны
	fixed := [][]byte{
		{0x55},
		{0xAA},
		{0x92, 0x49, 0x24},
		{0x49, 0x24, 0x92},
		{0x24, 0x92, 0x49},
		{0x00},
		{0x11},
		{0x22},
		{0x33},
		{0x44},
		{0x55},
		{0x66},
		{0x77},
		{0x88},
		{0x99},
		{0xAA},
		{0xBB},
		{0xCC},
		{0xDD},
		{0xEE},
		{0xFF},
		{0x92, 0x49, 0x24},
		{0x49, 0x24, 0x92},
		{0x24, 0x92, 0x49},
		{0x6D, 0xB6, 0xDB},
		{0xB6, 0xDB, 0x6D},
		{0xDB, 0x6D, 0xB6},
	}
	for _, b := range fixed {
		plan = append(plan, Pattern{Bytes: b})
	}

	// Проходы 32-35: случайные данные
	for i := 0; i < 4; i++ {
		plan = append(plan, patternRandom)
	}

	return plan
}

// fillBuffer заполняет буфер тиражированием паттерна
func fillBuffer(buf []byte, pattern []byte) {
	if len(pattern) == 0 || len(buf) == 0 {
		return
	}
	if len(pattern) == 1 {
		b := pattern[0]
		for i := range buf {
			buf[i] = b
		}
		return
	}
	n := copy(buf, pattern)
	// Удвоение заполненной части - быстрее побайтового тиражирования
	for n < len(buf) {
		n += copy(buf[n:], buf[:n])
	}
}
