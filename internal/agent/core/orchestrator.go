package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/webscout/internal/cache"
	"github.com/mohammad-safakhou/webscout/internal/cache/store"
	"github.com/mohammad-safakhou/webscout/internal/capability"
	"github.com/mohammad-safakhou/webscout/internal/search"
	"github.com/mohammad-safakhou/webscout/internal/session"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// fallbackResponse stands in when synthesis produces no content; the raw data
// is still cached alongside it.
const fallbackResponse = "I was able to retrieve the data but encountered an issue generating a summary. You can check the raw extraction in the logs."

// complexTerms trigger extended reasoning during planning; everything else
// plans in express mode to save latency.
var complexTerms = []string{"specs", "compare", "research", "latest", "detailed", "report", "analyze", "why", "how"}

var orchestratorTracer trace.Tracer = otel.Tracer("webscout/internal/agent/orchestrator")

// Orchestrator runs the plan, execute, evaluate, refine state machine for one
// query at a time. Instances are cheap; concurrent queries should each use
// their own while sharing the cache, registry and scorer.
type Orchestrator struct {
	config    *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry
	registry  *capability.Registry

	cache    store.Store
	fetcher  Fetcher
	scorer   *Scorer
	strategy *search.Strategy
	llm      LLMProvider
}

// NewOrchestrator wires an orchestrator from explicit dependencies so tests
// can substitute scripted oracles and fetchers.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tel *telemetry.Telemetry, registry *capability.Registry, cacheStore store.Store, fetcher Fetcher, llm LLMProvider) (*Orchestrator, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}

	return &Orchestrator{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		registry:  registry,
		cache:     cacheStore,
		fetcher:   fetcher,
		scorer:    NewScorer(cfg.Scorer),
		strategy:  search.NewStrategy(cfg.Search.Engine, cfg.Search.Locale),
		llm:       llm,
	}, nil
}

// Process resolves one query end to end: cache check, plan, fetch, bounded
// refinement, synthesis, cache store. The only hard error is a failed initial
// fetch; every oracle malfunction degrades to a conservative default.
func (o *Orchestrator) Process(ctx context.Context, query string) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	ctx, span := orchestratorTracer.Start(ctx, "agent.process",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("query", query),
		))
	defer span.End()

	event := telemetry.QueryEvent{ID: runID, Query: query, StartTime: startTime}
	defer func() {
		event.EndTime = time.Now()
		event.ProcessingTime = event.EndTime.Sub(event.StartTime)
		if o.telemetry != nil {
			o.telemetry.RecordQueryEvent(ctx, event)
		}
	}()

	o.logger.Printf("Processing query: %q", query)

	// Phase 0: cache check
	cacheKey := cache.NormalizeKey("query:" + query)
	if raw, ok := o.cache.Get(cacheKey); ok {
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			o.logger.Printf("Returning cached result for %q", query)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			event.Success = true
			event.CacheHit = true
			return &cached, nil
		}
	}

	// Phase 1: plan
	plan, answered := o.plan(ctx, query)
	if answered != nil {
		o.storeResult(cacheKey, answered)
		event.Success = true
		return answered, nil
	}

	// Phase 2: initial fetch
	sess, err := session.New()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		event.Error = err.Error()
		return nil, err
	}
	defer sess.Close()

	page, err := o.fetch(ctx, plan.URL, models.FetchOptions{ExtractContent: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		event.Error = err.Error()
		return nil, fmt.Errorf("initial scrape failed: %w", err)
	}
	if err := sess.Append(page); err != nil {
		o.logger.Printf("Warning: failed to index page: %v", err)
	}

	// Phase 3: bounded refinement loop
	state := &runState{query: query, plan: plan}
	o.refine(ctx, state, sess)
	event.Refinements = state.loopCount

	// Phase 4: synthesis
	result := o.synthesize(ctx, query, plan, sess)

	// Phase 5: cache store, unconditional
	o.storeResult(cacheKey, result)
	event.Success = true
	return result, nil
}

// ProcessDirectURL bypasses planning and navigates straight to a URL. When the
// landing page is a result or location list the first entry is followed
// automatically.
func (o *Orchestrator) ProcessDirectURL(ctx context.Context, directURL, query string) (*Result, error) {
	ctx, span := orchestratorTracer.Start(ctx, "agent.process_direct",
		trace.WithAttributes(attribute.String("url", directURL)))
	defer span.End()

	o.logger.Printf("Approaching direct target: %s", directURL)

	sess, err := session.New()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	page, err := o.fetch(ctx, directURL, models.FetchOptions{ExtractContent: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("direct navigation scrape failed: %w", err)
	}
	if err := sess.Append(page); err != nil {
		o.logger.Printf("Warning: failed to index page: %v", err)
	}

	pageType := page.PageType()
	if (pageType == "location_list" || pageType == "search_results") && len(page.Results) > 0 {
		target := page.Results[0]
		o.logger.Printf("Direct navigation landed on a list. Navigating to primary result: %s (%s)", target.Title, target.URL)
		if deep, err := o.fetch(ctx, target.URL, models.FetchOptions{ExtractContent: true}); err == nil && deep != nil {
			if err := sess.Append(deep); err != nil {
				o.logger.Printf("Warning: failed to index page: %v", err)
			}
		}
	}

	chain := sess.Provenance()
	rawJSON := truncateJSON(chain, o.synthesisMaxChars())

	o.logger.Printf("Generating final response...")
	response, err := o.complete(ctx, "synthesis", buildDirectPrompt(query, directURL, chain, rawJSON), true)
	if err != nil || strings.TrimSpace(response) == "" {
		response = fallbackResponse
	}

	result := &Result{
		Response: response,
		Plan:     &Plan{URL: directURL, Action: "direct_navigation"},
		RawData:  chain,
	}
	o.storeResult(cache.NormalizeKey("query:"+query), result)
	return result, nil
}

// plan runs the planning phase. It returns either a search plan or, for the
// direct-answer fast path, a finished Result.
func (o *Orchestrator) plan(ctx context.Context, query string) (*Plan, *Result) {
	ctx, span := orchestratorTracer.Start(ctx, "agent.plan")
	defer span.End()

	isComplex := len(query) > 50
	lower := strings.ToLower(query)
	for _, term := range complexTerms {
		if strings.Contains(lower, term) {
			isComplex = true
			break
		}
	}
	o.logger.Printf("Planning mode: %s", map[bool]string{true: "extended", false: "express"}[isComplex])

	fallbackURL := o.strategy.SearchURL(query)
	prompt := buildPlanningPrompt(query, o.registry.Cards(), fallbackURL)

	resp, err := o.complete(ctx, "plan", prompt, isComplex)
	if err != nil {
		o.logger.Printf("Planning oracle failed: %v. Using default search fallback.", err)
		span.RecordError(err)
		return o.fallbackPlan(fallbackURL), nil
	}

	plan, ok := DecodePlan(resp)
	if ok && plan.Action == "answer" && plan.Answer != "" {
		o.logger.Printf("Query answered directly (no browser needed).")
		span.SetAttributes(attribute.String("plan.action", "answer"))
		return nil, &Result{
			Response: plan.Answer,
			Metadata: map[string]interface{}{"source": "llm_knowledge"},
		}
	}

	if !ok || !validPlanURL(plan.URL) {
		o.logger.Printf("Oracle failed to produce a usable plan. Using default search fallback.")
		return o.fallbackPlan(fallbackURL), nil
	}

	span.SetAttributes(
		attribute.String("plan.action", plan.Action),
		attribute.String("plan.url", plan.URL),
	)
	o.logger.Printf("Agent target: %s", plan.URL)
	if plan.Reasoning != "" {
		o.logger.Printf("Agent reasoning: %s", firstN(plan.Reasoning, 100))
	}
	return plan, nil
}

// refine drives the bounded evaluate/refine loop, appending fresh snapshots
// to the session for every deep dive or interaction.
func (o *Orchestrator) refine(ctx context.Context, state *runState, sess *session.Session) {
	maxLoops := o.config.Agent.MaxRefinements
	if maxLoops <= 0 {
		maxLoops = 3
	}

	for state.loopCount < maxLoops {
		state.loopCount++
		page := sess.Current()

		needsDeepDive := false
		assessment := QualityAssessment{Recommendation: "answer"}

		if strings.Contains(state.plan.URL, "search") || len(page.Links) > 5 || len(page.Interactables) > 0 {
			if len(page.Results) > 0 {
				page.Results = o.scorer.ScoreResults(page.Results, state.query)
				assessment = o.scorer.AssessQuality(page.Results)
				if assessment.Recommendation == RecommendDeepDive || assessment.Recommendation == RecommendRetry {
					needsDeepDive = true
				}
			} else if page.WordCount < 100 && len(page.Interactables) > 0 {
				// likely a landing page needing interaction
				needsDeepDive = true
				assessment.Recommendation = RecommendInteract
			} else {
				// no structured results found
				needsDeepDive = true
			}
		}

		if !needsDeepDive {
			return
		}

		o.logger.Printf("Agent evaluation (loop %d/%d): determining next step...", state.loopCount, maxLoops)
		ctx, span := orchestratorTracer.Start(ctx, "agent.decide",
			trace.WithAttributes(attribute.Int("loop", state.loopCount)))

		resp, err := o.complete(ctx, "decision", buildDecisionPrompt(state.query, page, assessment), true)
		if err != nil {
			o.logger.Printf("Decision oracle failed: %v", err)
			span.RecordError(err)
			span.End()
			return
		}

		decision, ok := DecodeDecision(resp)
		if !ok {
			o.logger.Printf("Failed to parse agent decision; stopping refinement.")
			span.End()
			return
		}
		span.SetAttributes(attribute.String("decision.action", decision.Action))
		o.logger.Printf("Agent decision: %s %s", decision.Action, decision.TargetURL+decision.Selector)

		switch {
		case decision.Action == "answer":
			o.logger.Printf("Agent decided data is sufficient. Generating answer.")
			span.End()
			return

		case decision.Action == "deep_dive" && decision.TargetURL != "":
			if sameURL(decision.TargetURL, page.URL) {
				// no-op deep dive to the current page, treat as done
				o.logger.Printf("Ignoring deep_dive to the current URL.")
				span.End()
				return
			}
			o.logger.Printf("Navigating to %s for deep details...", decision.TargetURL)
			if deep, err := o.fetch(ctx, decision.TargetURL, models.FetchOptions{ExtractContent: true}); err == nil && deep != nil {
				if err := sess.Append(deep); err != nil {
					o.logger.Printf("Warning: failed to index page: %v", err)
				}
			}
			if o.telemetry != nil {
				o.telemetry.RecordRefinement(true)
			}

		case (decision.Action == "click" || decision.Action == "hover" || decision.Action == "scroll_to") && decision.Selector != "":
			o.logger.Printf("Interacting (%s) with element: %s...", decision.Action, decision.Selector)
			opts := models.FetchOptions{
				ExtractContent: true,
				Interactions: []models.Interaction{
					{Type: decision.Action, Selector: decision.Selector},
					{Type: "wait", Value: "5000"}, // let the UI settle
				},
			}
			if deep, err := o.fetch(ctx, page.URL, opts); err == nil && deep != nil {
				if err := sess.Append(deep); err != nil {
					o.logger.Printf("Warning: failed to index page: %v", err)
				}
			}
			if o.telemetry != nil {
				o.telemetry.RecordRefinement(false)
			}
		}
		span.End()
	}
}

// synthesize builds the final answer from the provenance chain.
func (o *Orchestrator) synthesize(ctx context.Context, query string, plan *Plan, sess *session.Session) *Result {
	ctx, span := orchestratorTracer.Start(ctx, "agent.synthesize")
	defer span.End()

	chain := sess.Provenance()
	rawJSON := truncateJSON(chain, o.synthesisMaxChars())
	extraContext := sess.Relevant(query, o.config.Agent.SessionTopK)

	o.logger.Printf("Generating final response...")
	response, err := o.complete(ctx, "synthesis", buildSynthesisPrompt(query, chain, rawJSON, extraContext), true)
	if err != nil {
		o.logger.Printf("Synthesis oracle failed: %v", err)
		span.RecordError(err)
	}
	if strings.TrimSpace(response) == "" {
		response = fallbackResponse
	}

	return &Result{Response: response, Plan: plan, RawData: chain}
}

// complete invokes the oracle with phase timing recorded.
func (o *Orchestrator) complete(ctx context.Context, phase, prompt string, useExtendedReasoning bool) (string, error) {
	start := time.Now()
	resp, err := o.llm.Complete(ctx, phase, prompt, useExtendedReasoning)
	if o.telemetry != nil {
		o.telemetry.RecordPhaseEvent(ctx, telemetry.PhaseEvent{
			Phase:    phase,
			Duration: time.Since(start),
			Success:  err == nil,
		})
	}
	return resp, err
}

// fetch delegates to the page driver with fetch telemetry recorded. A driver
// returning neither a page nor an error is reported as a failure so callers
// never see a nil page without one.
func (o *Orchestrator) fetch(ctx context.Context, pageURL string, opts models.FetchOptions) (*models.PageResult, error) {
	start := time.Now()
	page, err := o.fetcher.Fetch(ctx, pageURL, opts)
	if err == nil && page == nil {
		err = fmt.Errorf("fetcher returned no page for %s", pageURL)
	}
	if o.telemetry != nil {
		o.telemetry.RecordFetchEvent(ctx, telemetry.FetchEvent{
			URL:      pageURL,
			Duration: time.Since(start),
			Success:  err == nil,
			Blocked:  page != nil && page.IsBlocked,
		})
	}
	return page, err
}

func (o *Orchestrator) fallbackPlan(fallbackURL string) *Plan {
	return &Plan{
		Action:    "search",
		URL:       fallbackURL,
		Reasoning: "Fallback to search due to planning failure.",
	}
}

func (o *Orchestrator) storeResult(key string, result *Result) {
	if err := o.cache.Set(key, result); err != nil {
		o.logger.Printf("Warning: failed to cache result: %v", err)
	}
}

func (o *Orchestrator) synthesisMaxChars() int {
	if o.config.Agent.SynthesisMaxChars > 0 {
		return o.config.Agent.SynthesisMaxChars
	}
	return 15000
}

func truncateJSON(v interface{}, maxChars int) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	if len(raw) > maxChars {
		raw = raw[:maxChars]
	}
	return string(raw)
}

func validPlanURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// sameURL compares URLs ignoring scheme case and a trailing slash.
func sameURL(a, b string) bool {
	normalize := func(s string) string {
		s = strings.TrimSuffix(strings.TrimSpace(s), "/")
		return strings.ToLower(s)
	}
	return normalize(a) == normalize(b)
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
