package sqlinline

const QSelectAssetByID = `--sql f5b4a95d-2849-47aa-904c-41eb9b4c695d
select id, user_id, kind, storage_key, mime, bytes, width, height, created_at
from assets
where id = $1::uuid
limit 1;
`

const QListAssetsByIDsForUser = `--sql f1657a02-0d3c-41d0-acd6-a1530acb02f2
select id, user_id, kind, storage_key, mime, bytes, width, height, created_at
from assets
where user_id = $1::uuid
  and id = any($2::uuid[])
order by array_position($2::uuid[], id);
`
