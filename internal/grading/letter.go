// Package grading holds the pure scoring rules shared by grades and submissions.
package grading

import "strings"

// Band maps a minimum percentage to a letter grade and its 4.0-scale points.
type Band struct {
	Min    float64
	Letter string
	Points float64
}

// Bands is ordered from highest cutoff to lowest. F is the catch-all.
var Bands = []Band{
	{Min: 97, Letter: "A+", Points: 4.0},
	{Min: 93, Letter: "A", Points: 4.0},
	{Min: 90, Letter: "A-", Points: 3.7},
	{Min: 87, Letter: "B+", Points: 3.3},
	{Min: 83, Letter: "B", Points: 3.0},
	{Min: 80, Letter: "B-", Points: 2.7},
	{Min: 77, Letter: "C+", Points: 2.3},
	{Min: 73, Letter: "C", Points: 2.0},
	{Min: 70, Letter: "C-", Points: 1.7},
	{Min: 67, Letter: "D+", Points: 1.3},
	{Min: 63, Letter: "D", Points: 1.0},
	{Min: 60, Letter: "D-", Points: 0.7},
	{Min: 0, Letter: "F", Points: 0.0},
}

// LetterGrades lists every valid letter, highest first.
func LetterGrades() []string {
	letters := make([]string, 0, len(Bands))
	for _, band := range Bands {
		letters = append(letters, band.Letter)
	}
	return letters
}

// LetterFor returns the letter band for a percentage. Values outside [0,100] are clamped.
func LetterFor(percentage float64) string {
	if percentage > 100 {
		percentage = 100
	}
	for _, band := range Bands {
		if percentage >= band.Min {
			return band.Letter
		}
	}
	return "F"
}

// PointsFor returns the 4.0-scale grade points for a letter. Unknown letters yield 0.
func PointsFor(letter string) float64 {
	normalized := strings.ToUpper(strings.TrimSpace(letter))
	for _, band := range Bands {
		if band.Letter == normalized {
			return band.Points
		}
	}
	return 0
}

// IsLetter reports whether the value is one of the known bands.
func IsLetter(letter string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(letter))
	for _, band := range Bands {
		if band.Letter == normalized {
			return true
		}
	}
	return false
}
