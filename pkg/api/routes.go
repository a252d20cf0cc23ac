package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const tagRun = "Run"

type HealthOutput struct {
	Body HealthResponse
}

type RunOutput struct {
	Body RunResponse
}

type ListPathsInput struct {
	Accepted string `query:"accepted" enum:"true,false" doc:"Only accepted or only rejected paths" required:"false"`
}

type ListPathsOutput struct {
	Body struct {
		Paths []PathResponse `json:"paths" doc:"Finished paths in order"`
	}
}

type GetPathInput struct {
	Path int `path:"path" minimum:"1" doc:"Path number"`
}

type GetPathOutput struct {
	Body PathResponse
}

func RegisterHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness probe",
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		return &HealthOutput{Body: HealthResponse{Status: "ok"}}, nil
	})
}

// RegisterRun registers the run progress and path result routes.
func RegisterRun(api huma.API, src Source) {
	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/run",
		Summary:     "Get run progress",
		Tags:        []string{tagRun},
	}, func(ctx context.Context, input *struct{}) (*RunOutput, error) {
		p := src.Progress()
		resp := &RunOutput{Body: RunResponse{
			RunID:    p.RunID,
			NumPaths: p.NumPaths,
			Path:     p.Path,
			Phase:    string(p.Phase),
			Error:    p.Error,
			Summary:  src.Results().Summary(),
		}}
		if !p.StartedAt.IsZero() {
			started := p.StartedAt
			resp.Body.StartedAt = &started
		}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-paths",
		Method:      http.MethodGet,
		Path:        "/api/paths",
		Summary:     "List finished paths",
		Tags:        []string{tagRun},
	}, func(ctx context.Context, input *ListPathsInput) (*ListPathsOutput, error) {
		resp := &ListPathsOutput{}
		resp.Body.Paths = []PathResponse{}
		for _, res := range src.Results().All() {
			if input.Accepted != "" && fmt.Sprint(res.Accepted) != input.Accepted {
				continue
			}
			resp.Body.Paths = append(resp.Body.Paths, toPathResponse(res))
		}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-path",
		Method:      http.MethodGet,
		Path:        "/api/paths/{path}",
		Summary:     "Get one finished path",
		Tags:        []string{tagRun},
	}, func(ctx context.Context, input *GetPathInput) (*GetPathOutput, error) {
		res, ok := src.Results().Get(input.Path)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("path %d has not finished", input.Path))
		}
		return &GetPathOutput{Body: toPathResponse(res)}, nil
	})
}
