package spinner

import "unicode/utf16"

// DeriveSeed 根据城市与州名生成确定性种子
// 按 UTF-16 码元逐个执行 hash = hash*31 + c，int32 溢出回绕，最后取绝对值。
// 与旧版页面生成器逐位一致，不可改动。
func DeriveSeed(city, state string) int64 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(city + state)) {
		hash = hash*31 + int32(unit)
	}
	seed := int64(hash)
	if seed < 0 {
		seed = -seed
	}
	return seed
}
