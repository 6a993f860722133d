package service

// SplitCommission 按创作者比例拆分成交金额（最小货币单位）。
// 创作者收益向下取整，余数归平台，两者之和恒等于 amountTotal。
func SplitCommission(amountTotal int64, creatorPercent int) (creatorEarnings, platformEarnings int64, err error) {
	if amountTotal <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if creatorPercent < 0 || creatorPercent > 100 {
		return 0, 0, ErrInvalidCommission
	}
	// amountTotal * percent 可能溢出 int64，先拆分整百部分
	hundreds := amountTotal / 100
	rest := amountTotal % 100
	creatorEarnings = hundreds*int64(creatorPercent) + rest*int64(creatorPercent)/100
	platformEarnings = amountTotal - creatorEarnings
	return creatorEarnings, platformEarnings, nil
}
