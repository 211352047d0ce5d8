package webui

import (
	"context"
	"fmt"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
)

// Region flag bits understood by the grid.
const (
	RegionDefault       int64 = 1 << iota // 1
	RegionFallback                        // 2
	RegionOnline                          // 4
	RegionNoDirectLogin                   // 8
	RegionPersistent                      // 16
	RegionLockedOut                       // 32
	RegionNoMove                          // 64
	RegionReservation                     // 128
	RegionAuthenticate                    // 256
	RegionHyperlink                       // 512
	RegionHidden                          // 1024
	RegionSafe                            // 2048
	RegionPrelude                         // 4096
	RegionForeign                         // 8192

	allRegionFlags = RegionForeign<<1 - 1
)

// DefaultRegionCount is the batch size used when RegionQuery.Count is unset.
const DefaultRegionCount = 10

// RegionQuery selects regions for GetRegions. The numeric fields accept any
// Go integer or a string of decimal digits, as they usually come straight
// from user input; nil picks the default.
type RegionQuery struct {
	Flags        models.Value // default RegionOnline
	ExcludeFlags models.Value // default 0
	Start        models.Value // default 0
	Count        models.Value // default DefaultRegionCount

	// Sort orders, true for ascending. nil leaves the order to the service.
	SortRegionName *bool
	SortLocX       *bool
	SortLocY       *bool
}

// args checks the query and builds the call arguments.
func (q RegionQuery) args() (models.Object, error) {
	flags, err := queryInt(q.Flags, RegionOnline, "region flags")
	if err != nil {
		return nil, err
	}
	exclude, err := queryInt(q.ExcludeFlags, 0, "excluded region flags")
	if err != nil {
		return nil, err
	}
	start, err := queryInt(q.Start, 0, "start")
	if err != nil {
		return nil, err
	}
	count, err := queryInt(q.Count, DefaultRegionCount, "count")
	if err != nil {
		return nil, err
	}

	switch {
	case flags < 0 || flags&^allRegionFlags != 0:
		return nil, errors.NewArgumentError(fmt.Sprintf("region flags %d are not valid", flags), nil)
	case exclude < 0 || exclude&^allRegionFlags != 0:
		return nil, errors.NewArgumentError(fmt.Sprintf("excluded region flags %d are not valid", exclude), nil)
	case start < 0:
		return nil, errors.NewArgumentError("start must not be negative", nil)
	case count < 1:
		return nil, errors.NewArgumentError("count must be greater than zero", nil)
	}

	args := models.Object{
		"RegionFlags":        flags,
		"ExcludeRegionFlags": exclude,
		"Start":              start,
		"Count":              count,
	}
	if q.SortRegionName != nil {
		args["SortRegionName"] = *q.SortRegionName
	}
	if q.SortLocX != nil {
		args["SortLocX"] = *q.SortLocX
	}
	if q.SortLocY != nil {
		args["SortLocY"] = *q.SortLocY
	}
	return args, nil
}

func queryInt(v models.Value, def int64, name string) (int64, error) {
	if v == nil {
		return def, nil
	}
	n, ok := CoerceInt(v)
	if !ok {
		return 0, errors.NewArgumentError(fmt.Sprintf("%s must be an integer, got %v", name, v), nil)
	}
	return n, nil
}

// GetRegions returns one batch of regions matching q.
func (s *Service) GetRegions(ctx context.Context, q RegionQuery) (RegionPage, error) {
	args, err := q.args()
	if err != nil {
		return RegionPage{}, err
	}

	res, err := s.client.CallObject(ctx, MethodGetRegions, true, args, regionsSchema)
	if err != nil {
		return RegionPage{}, err
	}

	regions := array(res, "Regions")
	page := RegionPage{
		Regions: make([]GridRegion, 0, len(regions)),
		Total:   integer(res, "Total"),
	}
	for _, r := range regions {
		obj, _ := models.AsObject(r)
		page.Regions = append(page.Regions, gridRegionFrom(obj))
	}
	return page, nil
}
