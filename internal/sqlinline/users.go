package sqlinline

const QSelectUserTier = `--sql 7bd68e0b-ca87-4bd9-988f-94e7c73a2445
select plan
from users
where id = $1::uuid
limit 1;
`

const QSelectUserPlanByID = `--sql fe2b2acb-ef85-499d-bfb6-3e2ceb4ae20b
select id, email, plan
from users
where id = $1::uuid
limit 1;
`

const QSelectUserPlanByEmail = `--sql b9f05dd6-7443-4c30-83c2-98907f7adedc
select id, email, plan
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserPlan = `--sql a65335e2-d641-4109-b0eb-4a86545f2a23
update users
set plan = $2::text,
    properties = jsonb_set(coalesce(properties, '{}'::jsonb), '{plan_changed_at}', to_jsonb(now()), true),
    updated_at = now()
where id = $1::uuid
returning id, email, plan;
`
