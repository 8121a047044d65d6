package v1

import (
	"github.com/splitleasesharath/splitlease-sub017/internal/usecase"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

type V1 struct {
	sync   usecase.SyncUseCase
	logger logger.Interface
}
