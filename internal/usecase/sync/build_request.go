package sync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/bubble"
)

// BuildRequest returns the HTTP request a direct-object delivery would send,
// together with a readable preview and a curl reproduction. Nothing is
// executed and the credential is redacted everywhere in the output.
func (uc *SyncUseCase) BuildRequest(_ context.Context, req dto.BuildRequest) (*dto.BuiltRequest, error) {
	objectType := uc.mapper.DestinationTable(req.TableName)

	var (
		built bubble.Request
		err   error
	)

	if req.Operation == http.MethodGet {
		built = bubble.BuildGetRequest(uc.apiKey, objectType, req.DestinationID)
	} else {
		data := uc.transformer.TransformRecord(req.Data, req.FieldMapping, nil)
		built, err = bubble.BuildDataRequest(uc.apiKey, objectType, req.DestinationID, req.Operation, data, "")
		if err != nil {
			return nil, fmt.Errorf("SyncUseCase - BuildRequest - bubble.BuildDataRequest: %w", err)
		}
	}

	headers := make(map[string]string, len(built.Headers))
	for k, v := range built.Headers {
		if k == "Authorization" {
			v = "Bearer [REDACTED]"
		}
		headers[k] = v
	}

	return &dto.BuiltRequest{
		Method:  built.Method,
		Path:    built.Path,
		Headers: headers,
		Body:    built.Body,
		Preview: built.Preview(),
		Curl:    built.Curl(uc.baseURL),
	}, nil
}
