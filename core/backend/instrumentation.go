package backend

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/sunday/core/backend"

var logger = otelslog.NewLogger(scopeName)
