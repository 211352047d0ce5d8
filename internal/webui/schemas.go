package webui

import (
	"embed"
	"fmt"

	"github.com/mcncl/gridcall/internal/schema"
)

//go:embed schemas/*.yaml
var schemaFiles embed.FS

// Response schemas, one per remote method.
var (
	onlineStatusSchema    = mustLoad("online_status.yaml")
	checkUserExistsSchema = mustLoad("check_user_exists.yaml")
	textureSizeSchema     = mustLoad("texture_size.yaml")
	gridInfoSchema        = mustLoad("grid_info.yaml")
	gridUserInfoSchema    = mustLoad("grid_user_info.yaml")
	regionsSchema         = mustLoad("regions.yaml")
	groupSchema           = mustLoad("group.yaml")
	parcelSchema          = mustLoad("parcel.yaml")
	newsSourceSchema      = mustLoad("group_news_source.yaml")
)

func mustLoad(name string) schema.Schema {
	data, err := schemaFiles.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("webui: missing schema %s: %v", name, err))
	}
	s, err := schema.ParseShape(data)
	if err != nil {
		panic(fmt.Sprintf("webui: schema %s: %v", name, err))
	}
	return s
}

// ResponseSchema returns the declared response schema of a remote method, for
// callers that want to validate captured responses offline.
func ResponseSchema(method string) (schema.Schema, bool) {
	s, ok := methodSchemas[method]
	return s, ok
}

var methodSchemas = map[string]schema.Schema{
	MethodOnlineStatus:      onlineStatusSchema,
	MethodCheckIfUserExists: checkUserExistsSchema,
	MethodTextureSize:       textureSizeSchema,
	MethodGridInfo:          gridInfoSchema,
	MethodGetGridUserInfo:   gridUserInfoSchema,
	MethodGetRegions:        regionsSchema,
	MethodGetGroup:          groupSchema,
	MethodGetParcel:         parcelSchema,
	MethodGroupAsNewsSource: newsSourceSchema,
}
