package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Client fetches study records from the ClinicalTrials.gov v2 API.
type Client struct {
	base string
	rest *resty.Client
}

// NewClient creates a registry API client. base is the API root, e.g.
// "https://clinicaltrials.gov/api/v2".
func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r}
}

// studiesResponse mirrors the subset of the v2 /studies payload we
// consume.
type studiesResponse struct {
	Studies       []apiStudy `json:"studies"`
	NextPageToken string     `json:"nextPageToken"`
}

type apiStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID        string `json:"nctId"`
			BriefTitle   string `json:"briefTitle"`
			Organization struct {
				FullName string `json:"fullName"`
				Class    string `json:"class"`
			} `json:"organization"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus   string `json:"overallStatus"`
			StartDateStruct struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases     []string `json:"phases"`
			DesignInfo struct {
				PrimaryPurpose string `json:"primaryPurpose"`
			} `json:"designInfo"`
		} `json:"designModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
		OutcomesModule struct {
			PrimaryOutcomes []struct {
				Measure string `json:"measure"`
			} `json:"primaryOutcomes"`
		} `json:"outcomesModule"`
	} `json:"protocolSection"`
	DerivedSection struct {
		ConditionBrowseModule struct {
			Meshes []struct {
				Term string `json:"term"`
			} `json:"meshes"`
		} `json:"conditionBrowseModule"`
	} `json:"derivedSection"`
}

func (a apiStudy) toStudy() Study {
	p := a.ProtocolSection

	interventions := make([]string, 0, len(p.ArmsInterventionsModule.Interventions))
	for _, iv := range p.ArmsInterventionsModule.Interventions {
		interventions = append(interventions, iv.Name)
	}
	outcomes := make([]string, 0, len(p.OutcomesModule.PrimaryOutcomes))
	for _, o := range p.OutcomesModule.PrimaryOutcomes {
		outcomes = append(outcomes, o.Measure)
	}
	meshes := make([]string, 0, len(a.DerivedSection.ConditionBrowseModule.Meshes))
	for _, m := range a.DerivedSection.ConditionBrowseModule.Meshes {
		meshes = append(meshes, m.Term)
	}

	return Study{
		NCTID:          p.IdentificationModule.NCTID,
		OrgFullName:    p.IdentificationModule.Organization.FullName,
		OrgClass:       p.IdentificationModule.Organization.Class,
		BriefTitle:     p.IdentificationModule.BriefTitle,
		Conditions:     strings.Join(p.ConditionsModule.Conditions, ", "),
		Interventions:  strings.Join(interventions, ", "),
		MeshTerms:      strings.Join(meshes, ", "),
		OutcomeMeasure: strings.Join(outcomes, ", "),
		PrimaryPurpose: p.DesignModule.DesignInfo.PrimaryPurpose,
		Phases:         strings.Join(p.DesignModule.Phases, "|"),
		OverallStatus:  p.StatusModule.OverallStatus,
		StartDate:      p.StatusModule.StartDateStruct.Date,
	}
}

// FetchStudies pages through the /studies endpoint for the given
// condition query until limit records are collected or the result set
// is exhausted. limit <= 0 means no limit.
func (c *Client) FetchStudies(ctx context.Context, condition string, pageSize, limit int) ([]Study, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var studies []Study
	pageToken := ""
	for {
		resp := &studiesResponse{}
		req := c.rest.R().
			SetContext(ctx).
			SetQueryParam("query.cond", condition).
			SetQueryParam("pageSize", strconv.Itoa(pageSize)).
			SetResult(resp)
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}

		r, err := req.Get(c.base + "/studies")
		if err != nil {
			return nil, fmt.Errorf("fetch studies: %w", err)
		}
		if r.IsError() {
			return nil, fmt.Errorf("registry: %d %s", r.StatusCode(), r.Status())
		}

		for _, a := range resp.Studies {
			studies = append(studies, a.toStudy())
			if limit > 0 && len(studies) >= limit {
				log.Info().Int("studies", len(studies)).Msg("study fetch limit reached")
				return studies, nil
			}
		}

		log.Debug().Int("fetched", len(studies)).Str("next", resp.NextPageToken).Msg("study page fetched")

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	log.Info().Int("studies", len(studies)).Msg("study fetch complete")
	return studies, nil
}
