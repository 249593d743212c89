package domain

type RouterRequestAddWidget struct {
	Name        string         `json:"name" form:"name" binding:"required,max=255"`
	Description *string        `json:"description" form:"description"`
	Price       *float64       `json:"price" form:"price" binding:"omitempty,min=0"`
	Quantity    *int32         `json:"quantity" form:"quantity" binding:"omitempty,min=0"`
	Status      *string        `json:"status" form:"status" binding:"omitempty,validate_widget_status"`
	Metadata    map[string]any `json:"metadata"`
}

type RouterRequestUpdateWidget struct {
	Name        *string        `json:"name" form:"name" binding:"omitempty,min=1,max=255"`
	Description *string        `json:"description" form:"description"`
	Price       *float64       `json:"price" form:"price" binding:"omitempty,min=0"`
	Quantity    *int32         `json:"quantity" form:"quantity" binding:"omitempty,min=0"`
	Status      *string        `json:"status" form:"status" binding:"omitempty,validate_widget_status"`
	Metadata    map[string]any `json:"metadata"`
}

type RouterRequestDispatchBatch struct {
	WidgetIDs []int64 `json:"widget_ids" binding:"omitempty,dive,gt=0"`
}
