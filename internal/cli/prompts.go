package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/QuorumGo/consts"
)

const (
	modeAnalyze = "Consensus analysis"
	modeDebate  = "Persona debate"
	modeExit    = "Exit QuorumGo"
)

// PromptForMode asks what the user wants to run next
func PromptForMode() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What would you like to run?",
		Options: []string{modeAnalyze, modeDebate, modeExit},
		Default: modeAnalyze,
	}

	err := survey.AskOne(prompt, &choice)
	return choice, err
}

// PromptForSymbol prompts the user to enter a stock ticker symbol
func PromptForSymbol() (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "Please enter a valid stock ticker symbol for analysis",
	}

	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		matched, _ := regexp.MatchString(`^[A-Z0-9.-]+$`, str)
		if !matched {
			return fmt.Errorf("invalid ticker format (use letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.ToUpper(symbol)), nil
}

// PromptForTier prompts the user to select a subscription tier
func PromptForTier() (string, error) {
	options := []string{
		consts.TierFree + " - one persona, quick read",
		consts.TierLite + " - two personas compared",
		consts.TierBasic + " - all personas, full consensus",
		consts.TierPro + " - all personas, higher daily quota",
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select subscription tier:",
		Options: options,
		Help:    "The tier decides how many personas answer and how their opinions are aggregated.",
		Default: options[2],
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return strings.Split(selected, " -")[0], nil
}

// PromptForRounds prompts the user to pick a debate length
func PromptForRounds(max int) (int, error) {
	options := []string{}
	for r := 1; r <= max; r++ {
		label := fmt.Sprintf("%d rounds", r)
		if r == 1 {
			label = "1 round - opening statements only"
		}
		if r == max {
			label = fmt.Sprintf("%d rounds - full debate with closing synthesis", r)
		}
		options = append(options, label)
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select debate length:",
		Options: options,
		Default: options[len(options)-1],
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return 0, err
	}

	var rounds int
	fmt.Sscanf(selected, "%d", &rounds)
	if rounds < 1 {
		rounds = max
	}
	return rounds, nil
}

// PromptForAnotherRun asks whether to keep going after a run completes
func PromptForAnotherRun() (bool, error) {
	var again bool
	prompt := &survey.Confirm{
		Message: "Run another?",
		Default: true,
	}

	err := survey.AskOne(prompt, &again)
	return again, err
}
