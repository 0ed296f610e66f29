package decompiler

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("movedc.decompiler")
