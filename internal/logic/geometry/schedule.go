package geometry

// StepAngle returns the turntable increment between two of count views.
// Angles are whole degrees, as the turntable tool takes them.
func StepAngle(count int) int {
	if count <= 0 {
		return 0
	}
	return 360 / count
}

// Schedule returns the turntable angle of each of count views, starting at
// start and advancing by StepAngle(count).
func Schedule(count, start int) []int {
	if count <= 0 {
		return nil
	}
	step := StepAngle(count)
	angles := make([]int, count)
	for i := range angles {
		angles[i] = start + i*step
	}
	return angles
}
