package spinner

import "math"

// LCG 参数 (旧版生成器沿用的小模数线性同余)
const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// Sequence 可重新播种的伪随机序列
// 值类型，每次生成调用各自持有一份，不在调用间共享。不可用于任何安全场景。
type Sequence struct {
	state int64
}

// NewSequence 以给定种子创建序列
func NewSequence(seed int64) Sequence {
	return Sequence{state: seed}
}

// Reseed 重置内部寄存器
func (s *Sequence) Reseed(seed int64) {
	s.state = seed
}

// Next 推进一步并返回 [0,1) 内的数
func (s *Sequence) Next() float64 {
	s.state = (s.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(s.state) / lcgModulus
}

// Pick 返回 floor(Next()*n)
// n <= 0 时返回 -1 且不消耗序列
func (s *Sequence) Pick(n int) int {
	if n <= 0 {
		return -1
	}
	return int(math.Floor(s.Next() * float64(n)))
}
