package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"huskybot/pkg/cache"
	"huskybot/pkg/llm"
	"huskybot/pkg/search"
)

const (
	maxSearchQueries     = 2
	maxResultsPerQuery   = 3
	maxLexiconHitsPerTag = 3
	synthesisGracePeriod = 30 * time.Second
)

// visionReport is the structured output of the investigative vision stage.
type visionReport struct {
	Subject         string   `json:"subject"`
	StyleTags       []string `json:"style_tags"`
	ArtistTags      []string `json:"artist_tags"`
	CompositionTags []string `json:"composition_tags"`
	EmotionTags     []string `json:"emotion_tags"`
	SearchQueries   []string `json:"search_queries"`
}

// dossier collects everything the pipeline learned, serialized into the
// synthesis prompt.
type dossier struct {
	NSFW        bool                             `json:"nsfw"`
	Vision      visionReport                     `json:"vision"`
	LexiconHits map[string][]string              `json:"lexicon_hits,omitempty"`
	WebFindings map[string][]search.SearchResult `json:"web_findings,omitempty"`
}

// investigate runs the five-stage pipeline over an image: adult-content
// check, vision analysis, lexicon lookup, web search, synthesis. Progress is
// edited into a single placeholder; the whole run shares one deadline, with
// a grace period so a late synthesis can still land.
func (h *Handler) investigate(in *inbound, uri string) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(h.cfg.Investigate.TimeoutSeconds)*time.Second)
	defer cancel()

	placeholder, perr := in.s.ChannelMessageSend(in.channelID, stageNSFWText)
	if perr != nil {
		log.Printf("Failed to send investigation placeholder: %v", perr)
		placeholder = nil
	}
	progress := func(text string) {
		if placeholder == nil {
			return
		}
		if _, err := in.s.ChannelMessageEdit(in.channelID, placeholder.ID, text); err != nil {
			log.Printf("Failed to edit investigation progress: %v", err)
		}
	}

	// Stage 1: precautionary content check.
	nsfw := h.checkImageNSFW(ctx, uri)

	// Stage 2: structured vision analysis. A transport failure here leaves
	// nothing to investigate, so the pipeline aborts.
	progress(stageVisionText)
	report, err := h.analyzeImage(ctx, uri)
	if err != nil {
		log.Printf("Investigation aborted at vision stage: %v", err)
		h.deliver(in, placeholder, replyAnalysisFailed)
		return
	}

	// Stage 3: lexicon lookup for the style and artist tags.
	progress(stageLexiconText)
	lexHits := h.lookupTags(ctx, append(report.StyleTags, report.ArtistTags...))

	// Stage 4: web search, best effort per query.
	progress(stageWebText)
	webFindings := h.searchQueries(ctx, report.SearchQueries)

	// Stage 5: synthesis. If the deadline already passed, a short grace
	// window lets the gathered findings still produce a report.
	progress(stageSynthesisText)
	synthCtx := ctx
	if ctx.Err() != nil {
		var graceCancel context.CancelFunc
		synthCtx, graceCancel = context.WithTimeout(context.Background(), synthesisGracePeriod)
		defer graceCancel()
	}

	final, err := h.synthesize(synthCtx, in, dossier{
		NSFW:        nsfw,
		Vision:      report,
		LexiconHits: lexHits,
		WebFindings: webFindings,
	})
	if err != nil {
		log.Printf("Investigation synthesis failed for user %s: %v", in.userID, err)
		h.deliver(in, placeholder, replyInvestigateFailed)
		return
	}

	if placeholder != nil {
		if derr := in.s.ChannelMessageDelete(in.channelID, placeholder.ID); derr != nil {
			log.Printf("Failed to delete investigation placeholder: %v", derr)
		}
	}
	if serr := sendSplitMessage(in.s, in.channelID, final); serr != nil {
		log.Printf("Failed to send investigation report: %v", serr)
	}
}

func (h *Handler) analyzeImage(ctx context.Context, uri string) (visionReport, error) {
	raw, err := h.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: visionSystem},
		{Role: "user", Content: "Analyze this image.", Images: []string{uri}},
	}, llm.Options{JSONOnly: true, Temperature: h.cfg.ModelSettings.Temperature})
	if err != nil {
		return visionReport{}, fmt.Errorf("vision analysis: %w", err)
	}

	var report visionReport
	if jerr := json.Unmarshal([]byte(stripJSONFence(raw)), &report); jerr != nil {
		// Salvage an unstructured answer as the subject line.
		log.Printf("Vision analysis was not valid JSON, keeping raw text: %v", jerr)
		return visionReport{Subject: stripJSONFence(raw)}, nil
	}
	return report, nil
}

// lookupTags resolves tags against the lexicon, keeping a few matches per
// tag. The stage is skipped entirely once the deadline has passed.
func (h *Handler) lookupTags(ctx context.Context, tags []string) map[string][]string {
	if ctx.Err() != nil || h.lexicon == nil || h.lexicon.Len() == 0 {
		return nil
	}
	hits := make(map[string][]string)
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		for _, m := range h.lexicon.Search(tag, maxLexiconHitsPerTag) {
			hits[tag] = append(hits[tag], fmt.Sprintf("%s (%s): %s", m.Term, m.Category, m.Translation))
		}
	}
	if len(hits) == 0 {
		return nil
	}
	return hits
}

// searchQueries runs the first few suggested queries against the web,
// consulting the result cache first. Individual failures are logged and
// skipped; an expired deadline skips the stage.
func (h *Handler) searchQueries(ctx context.Context, queries []string) map[string][]search.SearchResult {
	if ctx.Err() != nil || h.searcher == nil {
		return nil
	}
	if len(queries) > maxSearchQueries {
		queries = queries[:maxSearchQueries]
	}

	findings := make(map[string][]search.SearchResult)
	opts := search.DefaultOptions()
	opts.MaxResults = maxResultsPerQuery

	for _, q := range queries {
		if q == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		var key string
		if h.cache != nil {
			key = h.cache.Key("search", q)
			var cached []search.SearchResult
			if err := h.cache.GetJSON(ctx, key, &cached); err == nil {
				findings[q] = cached
				continue
			}
		}

		results, err := h.searcher.Search(ctx, q, opts)
		if err != nil {
			log.Printf("Web search for %q failed, skipping: %v", q, err)
			continue
		}
		findings[q] = results
		if h.cache != nil && len(results) > 0 {
			if err := h.cache.SetJSON(ctx, key, results, cache.SearchResultTTL); err != nil {
				log.Printf("Failed to cache search results for %q: %v", q, err)
			}
		}
	}
	if len(findings) == 0 {
		return nil
	}
	return findings
}

// synthesize asks the model to fold the dossier into the final report. A
// malformed response is a hard failure here: the report is the product.
func (h *Handler) synthesize(ctx context.Context, in *inbound, d dossier) (string, error) {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize dossier: %w", err)
	}

	raw, err := h.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: fmt.Sprintf(synthesisSystem, h.botName, payload)},
		{Role: "user", Content: "Write the final report."},
	}, llm.Options{JSONOnly: true, Temperature: h.cfg.ModelSettings.Temperature})
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}

	var out struct {
		Analysis string `json:"analysis"`
		Comment  string `json:"comment"`
		Prompt   string `json:"prompt"`
	}
	if jerr := json.Unmarshal([]byte(stripJSONFence(raw)), &out); jerr != nil {
		return "", fmt.Errorf("parse synthesis response: %w", jerr)
	}
	if out.Analysis == "" && out.Comment == "" && out.Prompt == "" {
		return "", fmt.Errorf("synthesis response was empty")
	}

	final := fmt.Sprintf("%s Investigation complete! Here's the full report:\n\n**Findings**\n%s\n\n**Verdict**\n> %s",
		in.mention, out.Analysis, out.Comment)
	if out.Prompt != "" {
		final += "\n\n**Reconstructed prompt**\n```\n" + normalizePrompt(out.Prompt) + "\n```"
	}
	return final, nil
}
