package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var studentIDPattern = regexp.MustCompile(`\[(.*?)\]`)

// StudentID reads the "[id]" suffix of the CQU portal user badge.
func StudentID(pageHTML []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parse portal page: %w", err)
	}
	badge := doc.Find(".trigger-user-name").First()
	if badge.Length() == 0 {
		return "", fmt.Errorf("%w: user badge not found", ErrNotLoggedIn)
	}
	match := studentIDPattern.FindStringSubmatch(badge.Text())
	if match == nil || strings.TrimSpace(match[1]) == "" {
		return "", fmt.Errorf("%w: no student id in user badge", ErrNotLoggedIn)
	}
	return strings.TrimSpace(match[1]), nil
}

// CheckAccessToken strips the quotes the portal stores around its token.
func CheckAccessToken(raw string) (string, error) {
	token := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if token == "" {
		return "", fmt.Errorf("%w: access token is empty", ErrNotLoggedIn)
	}
	return token, nil
}

// CheckSessionPage rejects pages that are the login form instead of the requested content.
func CheckSessionPage(pageHTML []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	title := doc.Find("title").First().Text()
	if strings.Contains(title, "登录") || strings.Contains(title, "Login") {
		return fmt.Errorf("%w: session expired, log in to the academic system first", ErrNotLoggedIn)
	}
	return nil
}
