package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	derr "github.com/username/podroznik/internal/domain/errors"
	"github.com/username/podroznik/pkg/dateutil"
)

const (
	suggestPath          = "/public/suggest.do"
	searchPath           = "/public/searchingResults.do?method=task"
	resultExtendedPath   = "/public/searchingResultExtended.do"
	generalTimetablePath = "/public/generalTimetable.do"

	searchFormPrefix = "formCompositeSearchingResults.formCompositeSearcherFinalH."
	defaultView      = "regularP"
)

var numericIDRe = regexp.MustCompile(`^\d+$`)

// Suggest asks the upstream autocompleter for places matching the query.
// kind is KindSource or KindDestination; an unknown suggestType becomes "ALL".
//
// An empty answer or an error status without suggestions usually means the remote
// session expired, so the session is rebuilt and the call repeated once. A second
// empty answer is returned as a legitimate "no matches".
func (c *Client) Suggest(ctx context.Context, query, kind, suggestType string) (*SuggestResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SuggestResponse{Status: "1", Suggestions: []Suggestion{}}, nil
	}
	if kind != KindSource && kind != KindDestination {
		return nil, fmt.Errorf("%w: request kind %q", derr.ErrInvalidInput, kind)
	}
	suggestType = normalizeSuggestType(suggestType)

	if err := c.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	resp, empty, err := c.suggestOnce(ctx, query, kind, suggestType)
	if err != nil {
		return nil, err
	}
	if !empty && (len(resp.Suggestions) > 0 || resp.OK()) {
		return resp, nil
	}

	c.logger.Info("Empty suggestions, renewing upstream session",
		zap.String("query", query),
		zap.String("status", resp.Status.String()))

	if err := c.renew(ctx); err != nil {
		return nil, err
	}

	resp, _, err = c.suggestOnce(ctx, query, kind, suggestType)
	if err != nil {
		return nil, err
	}
	if len(resp.Suggestions) > 0 {
		return resp, nil
	}
	if status := resp.Status.String(); status != "" && status != "0" {
		return nil, fmt.Errorf("%w: suggest status %s", derr.ErrUpstreamFault, status)
	}
	return resp, nil
}

func (c *Client) suggestOnce(ctx context.Context, query, kind, suggestType string) (*SuggestResponse, bool, error) {
	form := url.Values{
		"query":              {query},
		"type":               {suggestType},
		"requestKind":        {kind},
		"countryCode":        {""},
		"forcingCountryCode": {"false"},
		"tabToken":           {c.Token()},
	}
	headers := map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"Origin":           c.target.BaseURL(),
		"Referer":          c.target.BaseURL() + "/",
	}

	body, err := c.Request(ctx, http.MethodPost, suggestPath, form, headers)
	if err != nil {
		return nil, false, fmt.Errorf("suggest: %w", err)
	}
	if isEmpty(body) {
		return &SuggestResponse{Status: "0", Suggestions: []Suggestion{}}, true, nil
	}

	var payload struct {
		Status      FlexibleString `json:"status"`
		Suggestions *[]Suggestion  `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &payload); err != nil {
		return nil, false, fmt.Errorf("%w: unreadable suggest response: %v", derr.ErrUpstreamFault, err)
	}
	if payload.Suggestions == nil {
		return nil, false, fmt.Errorf("%w: suggest response without suggestions", derr.ErrUpstreamFault)
	}

	return &SuggestResponse{Status: payload.Status, Suggestions: *payload.Suggestions}, false, nil
}

// Search submits the connection search form and returns the results page HTML
func (c *Client) Search(ctx context.Context, p SearchParams) (string, error) {
	form, err := buildSearchForm(p)
	if err != nil {
		return "", err
	}

	if err := c.EnsureInitialized(ctx); err != nil {
		return "", err
	}

	form.Set("tabToken", c.Token())
	html, err := c.Request(ctx, http.MethodPost, searchPath, form, nil)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if !isEmpty(html) {
		return html, nil
	}

	c.logger.Info("Empty search results page, renewing upstream session",
		zap.String("from", p.FromV),
		zap.String("to", p.ToV))

	if err := c.renew(ctx); err != nil {
		return "", err
	}
	form.Set("tabToken", c.Token())
	html, err = c.Request(ctx, http.MethodPost, searchPath, form, nil)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	return html, nil
}

func buildSearchForm(p SearchParams) (url.Values, error) {
	if p.FromV == "" || p.ToV == "" {
		return nil, fmt.Errorf("%w: origin and destination place data are required", derr.ErrInvalidInput)
	}

	date, err := dateutil.ParseDate(p.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", derr.ErrInvalidInput, err)
	}

	view := p.View
	if view == "" {
		view = defaultView
	}
	tripType := p.TripType
	if tripType != TripTwoWay {
		tripType = TripOneWay
	}

	form := url.Values{}
	form.Set("tseVw", view)
	form.Set("tabToken", "")
	form.Set("fromV", p.FromV)
	form.Set("toV", p.ToV)
	form.Set("tripType", tripType)
	form.Set(searchFormPrefix+"fromText", p.FromQuery)
	form.Set(searchFormPrefix+"toText", p.ToQuery)
	form.Set(searchFormPrefix+"dateV", dateutil.FormatUpstreamDate(date))
	form.Set(searchFormPrefix+"arrivalV", arrivalMode(p.Arrival))

	setClock(form, "timeV", "ommitTime", p.Time, p.OmitTime)

	if p.PreferDirects {
		form.Set(searchFormPrefix+"preferDirects", "true")
	}
	if p.OnlyOnline {
		form.Set(searchFormPrefix+"focusedOnSellable", "true")
	}
	form.Set("minimalTimeForChangeV", p.MinChange)

	for _, ct := range p.CarrierTypes {
		if ct >= 1 && ct <= 5 {
			form.Add(searchFormPrefix+"carrierTypes", strconv.Itoa(ct))
		}
	}

	if tripType == TripTwoWay {
		if ret, err := dateutil.ParseDate(p.ReturnDate); err == nil {
			form.Set(searchFormPrefix+"returnDateV", dateutil.FormatUpstreamDate(ret))
		} else {
			form.Set(searchFormPrefix+"ommitReturnDate", "on")
		}
		form.Set(searchFormPrefix+"returnArrivalV", arrivalMode(p.ReturnArrival))
		setClock(form, "returnTimeV", "ommitReturnTime", p.ReturnTime, p.OmitReturnTime)
	}

	return form, nil
}

// setClock fills a time field, or blanks it and sets the matching "omit" flag
func setClock(form url.Values, field, omitField, value string, omit bool) {
	if !omit && strings.TrimSpace(value) != "" {
		if hm, err := dateutil.NormalizeTime(value); err == nil {
			form.Set(searchFormPrefix+field, hm)
			return
		}
	}
	form.Set(searchFormPrefix+field, "")
	form.Set(searchFormPrefix+omitField, "on")
}

func arrivalMode(v string) string {
	if v == ModeArrival {
		return ModeArrival
	}
	return ModeDeparture
}

// ResultExtended fetches the details page of one search result
func (c *Client) ResultExtended(ctx context.Context, resultID string) (string, error) {
	resultID = strings.TrimSpace(resultID)
	if resultID == "" {
		return "", fmt.Errorf("%w: empty result id", derr.ErrInvalidInput)
	}

	if err := c.EnsureInitialized(ctx); err != nil {
		return "", err
	}

	q := url.Values{"tabToken": {c.Token()}, "resultId": {resultID}}
	html, err := c.Request(ctx, http.MethodGet, resultExtendedPath+"?"+q.Encode(), nil, nil)
	if err != nil {
		return "", fmt.Errorf("result details: %w", err)
	}
	return html, nil
}

// GeneralTimetableStop fetches the general timetable page of a stop
func (c *Client) GeneralTimetableStop(ctx context.Context, stopID string) (string, error) {
	stopID = strings.TrimSpace(stopID)
	if !numericIDRe.MatchString(stopID) {
		return "", fmt.Errorf("%w: stop id %q", derr.ErrInvalidInput, stopID)
	}

	if err := c.EnsureInitialized(ctx); err != nil {
		return "", err
	}

	html, err := c.Request(ctx, http.MethodGet, c.timetablePath(stopID), nil, nil)
	if err != nil {
		return "", fmt.Errorf("timetable: %w", err)
	}
	if !isEmpty(html) {
		return html, nil
	}

	c.logger.Info("Empty timetable page, renewing upstream session", zap.String("stop_id", stopID))

	if err := c.renew(ctx); err != nil {
		return "", err
	}
	html, err = c.Request(ctx, http.MethodGet, c.timetablePath(stopID), nil, nil)
	if err != nil {
		return "", fmt.Errorf("timetable: %w", err)
	}
	return html, nil
}

func (c *Client) timetablePath(stopID string) string {
	q := url.Values{"tabToken": {c.Token()}, "stopId": {stopID}}
	return generalTimetablePath + "?" + q.Encode()
}

// Get fetches any page of the allowlisted origin
func (c *Client) Get(ctx context.Context, pathOrURL string) (string, error) {
	return c.Request(ctx, http.MethodGet, pathOrURL, nil, nil)
}
