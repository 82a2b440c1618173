package store

// viewDefinitions are the analytical views built on top of the star
// schema, created in order after all tables and indexes exist.
//
// effective_price is the sale price when positive, otherwise the list
// price. view_catalog recomputes the discount percentage from the stored
// prices so analysts can cross-check it against the stored discount_rate.
var viewDefinitions = []string{
	`CREATE VIEW view_catalog AS
	SELECT
		p.product_id,
		p.name,
		b.brand,
		c.category,
		p.url,
		p.colour,
		p.price_mrp,
		p.price_sale,
		p.discount_rate,
		p.is_on_sale,
		CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END AS effective_price,
		CASE WHEN p.price_mrp > 0
			THEN ROUND((p.price_mrp - p.price_sale) / p.price_mrp * 100, 2)
			ELSE 0
		END AS computed_discount_pct
	FROM products p
	LEFT JOIN brands b ON p.brand_id = b.brand_id
	LEFT JOIN categories c ON p.category_id = c.category_id`,

	`CREATE VIEW view_top_products AS
	SELECT
		p.product_id,
		p.name,
		b.brand,
		c.category,
		p.price_sale,
		r.rating,
		r.review_count,
		r.popularity_score
	FROM products p
	JOIN reviews r ON p.product_id = r.product_id
	LEFT JOIN brands b ON p.brand_id = b.brand_id
	LEFT JOIN categories c ON p.category_id = c.category_id`,

	`CREATE VIEW view_promotions AS
	SELECT *
	FROM view_catalog
	WHERE (price_mrp > 0 AND price_sale > 0 AND price_sale < price_mrp)
	   OR discount_rate > 0
	   OR is_on_sale`,

	`CREATE VIEW view_category_stats AS
	SELECT
		c.category,
		COUNT(p.product_id) AS product_count,
		ROUND(AVG(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END), 2) AS avg_effective_price,
		ROUND(AVG(r.rating), 2) AS avg_rating,
		COALESCE(SUM(r.review_count), 0) AS total_reviews,
		MIN(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END) AS min_effective_price,
		MAX(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END) AS max_effective_price
	FROM categories c
	JOIN products p ON p.category_id = c.category_id
	LEFT JOIN reviews r ON r.product_id = p.product_id
	GROUP BY c.category`,

	`CREATE VIEW view_brand_stats AS
	SELECT
		b.brand,
		COUNT(p.product_id) AS product_count,
		ROUND(AVG(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END), 2) AS avg_effective_price,
		ROUND(AVG(r.rating), 2) AS avg_rating,
		COALESCE(SUM(r.review_count), 0) AS total_reviews,
		MIN(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END) AS min_effective_price,
		MAX(CASE WHEN p.price_sale > 0 THEN p.price_sale ELSE p.price_mrp END) AS max_effective_price
	FROM brands b
	JOIN products p ON p.brand_id = b.brand_id
	LEFT JOIN reviews r ON r.product_id = p.product_id
	GROUP BY b.brand`,
}
